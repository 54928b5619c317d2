package store

import (
	"context"
	"fmt"

	"github.com/starford/notebook/internal/apperr"
	"github.com/starford/notebook/internal/models"
)

// Membership roles.
const (
	RoleOwner  = "OWNER"
	RoleMember = "MEMBER"
)

// CreateOrganization creates an organization and enrolls ownerID as its
// owner.
func (db *DB) CreateOrganization(ctx context.Context, name string, ownerID int64) (*models.Organization, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	org := &models.Organization{Name: name, OwnerID: ownerID, CreatedAt: now()}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO organizations (name, owner_id, created_at) VALUES (?, ?, ?)`,
		org.Name, org.OwnerID, org.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: insert organization: %w", err)
	}
	if org.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("store: organization id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO org_members (org_id, user_id, role) VALUES (?, ?, ?)`,
		org.ID, ownerID, RoleOwner); err != nil {
		return nil, fmt.Errorf("store: enroll owner: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return org, nil
}

// AddMember enrolls userID in orgID. Re-adding an existing member updates the
// role.
func (db *DB) AddMember(ctx context.Context, orgID, userID int64, role string) error {
	var exists int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM organizations WHERE id = ?`, orgID).Scan(&exists); err != nil {
		return fmt.Errorf("store: lookup organization: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("store: organization %d: %w", orgID, apperr.ErrNotFound)
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO org_members (org_id, user_id, role) VALUES (?, ?, ?)
		ON CONFLICT(org_id, user_id) DO UPDATE SET role = excluded.role
	`, orgID, userID, role)
	if err != nil {
		return fmt.Errorf("store: add member: %w", err)
	}
	return nil
}

// IsMember reports whether userID belongs to orgID.
func (db *DB) IsMember(ctx context.Context, orgID, userID int64) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM org_members WHERE org_id = ? AND user_id = ?`,
		orgID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: is member: %w", err)
	}
	return n > 0, nil
}
