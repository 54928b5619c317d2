// Package noteservice is the entry point of the linking engine: it resolves
// the caller's tenant, loads that tenant's notes and runs the graph builder or
// the backlink resolver over them. It also carries plain note CRUD.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/starford/notebook/internal/apperr"
	"github.com/starford/notebook/internal/checksum"
	"github.com/starford/notebook/internal/graph"
	"github.com/starford/notebook/internal/models"
	"github.com/starford/notebook/internal/parser"
	"github.com/starford/notebook/internal/store"
	"github.com/starford/notebook/internal/tenant"
)

const excerptRunes = 200

// Change kinds reported to the Notifier.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Notifier is called after every successful mutation.
type Notifier func(t tenant.Identity, kind string, noteID int64)

// NoteDetail is the full representation of a note plus its revision token.
type NoteDetail struct {
	models.Note
	Revision string `json:"revision"`
}

// Service coordinates note access for one process. It holds no per-request
// state; the tenant always comes from the call's context.
type Service struct {
	db     store.NoteStore
	notify Notifier
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier registers a change callback.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new note service.
func NewService(db store.NoteStore, opts ...Option) *Service {
	s := &Service{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Graph builds the knowledge graph of the caller's tenant from a single
// tenant-scoped query. Either the whole snapshot is returned or an error.
func (s *Service) Graph(ctx context.Context) (*graph.Graph, error) {
	t, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.db.ListNotesForTenant(ctx, t)
	if err != nil {
		return nil, err
	}
	return graph.Build(notes), nil
}

// Backlinks returns the notes of the caller's tenant that reference id, most
// recently updated first. id itself is never part of the result. A note that
// does not exist or belongs to another tenant is reported as not found.
func (s *Service) Backlinks(ctx context.Context, id int64) ([]models.NoteSummary, error) {
	t, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	target, err := s.db.GetNoteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tenant.AssertOwned(target, t); err != nil {
		return nil, fmt.Errorf("note %d: %w", id, apperr.ErrNotFound)
	}

	candidates, err := s.db.ListNotesContaining(ctx, t, parser.Needle(id), id)
	if err != nil {
		return nil, err
	}
	out := []models.NoteSummary{}
	for i := range candidates {
		if parser.References(candidates[i].Content, id) {
			out = append(out, candidates[i].Summary())
		}
	}
	return out, nil
}

// GetNote returns one note of the caller's tenant.
func (s *Service) GetNote(ctx context.Context, id int64) (*NoteDetail, error) {
	t, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.owned(ctx, t, id)
	if err != nil {
		return nil, err
	}
	return detail(n), nil
}

// CreateNote stores a new note in the caller's tenant.
func (s *Service) CreateNote(ctx context.Context, in NoteInput) (*NoteDetail, error) {
	t, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}

	ts := s.now().UTC()
	n := &models.Note{
		OwnerID:   t.ID,
		OwnerKind: t.Kind,
		FolderID:  in.FolderID,
		Title:     in.Title,
		Content:   in.Content,
		Excerpt:   in.Excerpt,
		Pinned:    in.Pinned,
		Tags:      parser.NormalizeTags(in.Tags),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if n.Excerpt == "" {
		n.Excerpt = parser.Excerpt(n.Content, excerptRunes)
	}
	if err := s.db.InsertNote(ctx, n); err != nil {
		return nil, err
	}
	s.emit(t, EventCreated, n.ID)
	return detail(n), nil
}

// UpdateNote applies patch to a note of the caller's tenant. When ifMatch is
// non-empty it must equal the note's current revision.
func (s *Service) UpdateNote(ctx context.Context, id int64, patch NotePatch, ifMatch string) (*NoteDetail, error) {
	t, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err)
	}
	n, err := s.owned(ctx, t, id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != revision(n) {
		return nil, fmt.Errorf("note %d: %w", id, apperr.ErrConflict)
	}

	patch.apply(n)
	n.UpdatedAt = s.now().UTC()
	if err := s.db.UpdateNote(ctx, n); err != nil {
		return nil, err
	}
	s.emit(t, EventUpdated, n.ID)
	return detail(n), nil
}

// DeleteNote removes a note of the caller's tenant. References to it in other
// notes are left in place and drop out of the graph.
func (s *Service) DeleteNote(ctx context.Context, id int64) error {
	t, err := tenant.FromContext(ctx)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, t, id); err != nil {
		return err
	}
	if err := s.db.DeleteNote(ctx, t, id); err != nil {
		return err
	}
	s.emit(t, EventDeleted, id)
	return nil
}

// ListNotes lists the caller's notes, pinned first, optionally in one folder.
func (s *Service) ListNotes(ctx context.Context, folderID *int64) ([]models.NoteSummary, error) {
	t, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.db.ListNotes(ctx, t, folderID)
	if err != nil {
		return nil, err
	}
	return summaries(notes), nil
}

// Search returns the caller's notes whose title, excerpt or body contains
// query.
func (s *Service) Search(ctx context.Context, query string) ([]models.NoteSummary, error) {
	t, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", apperr.ErrInvalidInput)
	}
	notes, err := s.db.ListNotesMatching(ctx, t, query)
	if err != nil {
		return nil, err
	}
	return summaries(notes), nil
}

// ExportNotes returns the full notes of the caller's tenant in id order.
func (s *Service) ExportNotes(ctx context.Context) ([]models.Note, error) {
	t, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.db.ListNotesForTenant(ctx, t)
}

// owned looks id up by bare id and applies the tenant guard.
func (s *Service) owned(ctx context.Context, t tenant.Identity, id int64) (*models.Note, error) {
	n, err := s.db.GetNoteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tenant.AssertOwned(n, t); err != nil {
		return nil, fmt.Errorf("note %d: %w", id, err)
	}
	return n, nil
}

func (s *Service) emit(t tenant.Identity, kind string, id int64) {
	if s.notify != nil {
		s.notify(t, kind, id)
	}
}

// IsNotFound reports whether err means the note is not visible to the caller,
// either because it does not exist or because it belongs to another tenant.
func IsNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrAccessDenied)
}

func revision(n *models.Note) string {
	folder := ""
	if n.FolderID != nil {
		folder = strconv.FormatInt(*n.FolderID, 10)
	}
	return checksum.Sum(n.Title, n.Content, n.Excerpt, folder,
		strconv.FormatBool(n.Pinned), strings.Join(n.Tags, "\x1f"))
}

func detail(n *models.Note) *NoteDetail {
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return &NoteDetail{Note: *n, Revision: revision(n)}
}

func summaries(notes []models.Note) []models.NoteSummary {
	out := make([]models.NoteSummary, len(notes))
	for i := range notes {
		out[i] = notes[i].Summary()
	}
	return out
}
