package store

import (
	"context"

	"github.com/starford/notebook/internal/models"
	"github.com/starford/notebook/internal/tenant"
)

// NoteStore is the note access boundary consumed by the service layer.
// Listing methods are tenant-filtered at the query level. GetNoteByID is a
// bare lookup; callers must run tenant.AssertOwned on the result.
type NoteStore interface {
	ListNotesForTenant(ctx context.Context, t tenant.Identity) ([]models.Note, error)
	ListNotes(ctx context.Context, t tenant.Identity, folderID *int64) ([]models.Note, error)
	ListNotesMatching(ctx context.Context, t tenant.Identity, filter string) ([]models.Note, error)
	ListNotesContaining(ctx context.Context, t tenant.Identity, literal string, excludeID int64) ([]models.Note, error)
	GetNoteByID(ctx context.Context, id int64) (*models.Note, error)
	InsertNote(ctx context.Context, n *models.Note) error
	UpdateNote(ctx context.Context, n *models.Note) error
	DeleteNote(ctx context.Context, t tenant.Identity, id int64) error
}

// Membership answers organization permission checks.
type Membership interface {
	IsMember(ctx context.Context, orgID, userID int64) (bool, error)
}

// Verify *DB satisfies the interfaces at compile time.
var (
	_ NoteStore  = (*DB)(nil)
	_ Membership = (*DB)(nil)
)
