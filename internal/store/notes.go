package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/notebook/internal/apperr"
	"github.com/starford/notebook/internal/models"
	"github.com/starford/notebook/internal/tenant"
)

const noteColumns = `id, tenant_id, tenant_kind, folder_id, title, content, excerpt, pinned, tags, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (*models.Note, error) {
	var (
		n      models.Note
		kind   string
		folder sql.NullInt64
		tags   string
	)
	if err := r.Scan(&n.ID, &n.OwnerID, &kind, &folder, &n.Title, &n.Content,
		&n.Excerpt, &n.Pinned, &tags, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.OwnerKind = tenant.Kind(kind)
	if folder.Valid {
		id := folder.Int64
		n.FolderID = &id
	}
	n.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
			return nil, fmt.Errorf("store: decode tags of note %d: %w", n.ID, err)
		}
	}
	return &n, nil
}

func (db *DB) queryNotes(ctx context.Context, op, query string, args ...any) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("store: %s: scan: %w", op, err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	return out, nil
}

// ListNotesForTenant returns every note of t in a stable order (by id).
func (db *DB) ListNotesForTenant(ctx context.Context, t tenant.Identity) ([]models.Note, error) {
	return db.queryNotes(ctx, "list tenant notes", `
		SELECT `+noteColumns+`
		FROM notes
		WHERE tenant_kind = ? AND tenant_id = ?
		ORDER BY id ASC
	`, string(t.Kind), t.ID)
}

// ListNotes returns the notes of t, pinned first and then most recently
// updated. A non-nil folderID restricts the listing to that folder.
func (db *DB) ListNotes(ctx context.Context, t tenant.Identity, folderID *int64) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE tenant_kind = ? AND tenant_id = ?`
	args := []any{string(t.Kind), t.ID}
	if folderID != nil {
		query += ` AND folder_id = ?`
		args = append(args, *folderID)
	}
	query += ` ORDER BY pinned DESC, updated_at DESC, id DESC`
	return db.queryNotes(ctx, "list notes", query, args...)
}

// ListNotesMatching returns the notes of t whose title, excerpt or body
// contains filter (case-insensitive for ASCII, no ranking).
func (db *DB) ListNotesMatching(ctx context.Context, t tenant.Identity, filter string) ([]models.Note, error) {
	like := "%" + escapeLike(filter) + "%"
	return db.queryNotes(ctx, "search notes", `
		SELECT `+noteColumns+`
		FROM notes
		WHERE tenant_kind = ? AND tenant_id = ?
		  AND (title LIKE ? ESCAPE '\' OR excerpt LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')
		ORDER BY updated_at DESC, id DESC
	`, string(t.Kind), t.ID, like, like, like)
}

// ListNotesContaining returns the notes of t, other than excludeID, whose
// body contains literal byte-for-byte. Most recently updated first.
func (db *DB) ListNotesContaining(ctx context.Context, t tenant.Identity, literal string, excludeID int64) ([]models.Note, error) {
	return db.queryNotes(ctx, "list notes containing", `
		SELECT `+noteColumns+`
		FROM notes
		WHERE tenant_kind = ? AND tenant_id = ?
		  AND id <> ?
		  AND instr(content, ?) > 0
		ORDER BY updated_at DESC, id DESC
	`, string(t.Kind), t.ID, excludeID, literal)
}

// GetNoteByID looks a note up by id alone.
func (db *DB) GetNoteByID(ctx context.Context, id int64) (*models.Note, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: note %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get note: %w", err)
	}
	return n, nil
}

// InsertNote stores a new note and sets its ID.
func (db *DB) InsertNote(ctx context.Context, n *models.Note) error {
	tagsJSON, err := json.Marshal(nonNilTags(n.Tags))
	if err != nil {
		return fmt.Errorf("store: encode tags: %w", err)
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO notes (tenant_id, tenant_kind, folder_id, title, content, excerpt, pinned, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.OwnerID, string(n.OwnerKind), nullableID(n.FolderID), n.Title, n.Content, n.Excerpt,
		n.Pinned, string(tagsJSON), n.CreatedAt.UTC(), n.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("store: insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: insert note id: %w", err)
	}
	n.ID = id
	return nil
}

// UpdateNote overwrites the mutable fields of an existing note. The owning
// tenant is part of the WHERE clause, so a note can never change hands.
func (db *DB) UpdateNote(ctx context.Context, n *models.Note) error {
	tagsJSON, err := json.Marshal(nonNilTags(n.Tags))
	if err != nil {
		return fmt.Errorf("store: encode tags: %w", err)
	}
	res, err := db.conn.ExecContext(ctx, `
		UPDATE notes SET
			folder_id  = ?,
			title      = ?,
			content    = ?,
			excerpt    = ?,
			pinned     = ?,
			tags       = ?,
			updated_at = ?
		WHERE id = ? AND tenant_kind = ? AND tenant_id = ?
	`, nullableID(n.FolderID), n.Title, n.Content, n.Excerpt, n.Pinned, string(tagsJSON),
		n.UpdatedAt.UTC(), n.ID, string(n.OwnerKind), n.OwnerID)
	if err != nil {
		return fmt.Errorf("store: update note: %w", err)
	}
	return expectOneRow(res, n.ID)
}

// DeleteNote removes note id from t. Other notes referencing it keep their
// (now dangling) references.
func (db *DB) DeleteNote(ctx context.Context, t tenant.Identity, id int64) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM notes WHERE id = ? AND tenant_kind = ? AND tenant_id = ?`,
		id, string(t.Kind), t.ID)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: note %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// now is the store's clock for rows it creates itself.
var now = func() time.Time { return time.Now().UTC() }
