// Package store provides SQLite-backed persistence for notes and
// organizations. Every note listing is filtered by tenant inside the query
// itself; nothing is filtered after the fact.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant_id   INTEGER NOT NULL,
	tenant_kind TEXT    NOT NULL,
	folder_id   INTEGER,
	title       TEXT    NOT NULL DEFAULT '',
	content     TEXT    NOT NULL DEFAULT '',
	excerpt     TEXT    NOT NULL DEFAULT '',
	pinned      INTEGER NOT NULL DEFAULT 0,
	tags        TEXT    NOT NULL DEFAULT '[]',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notes_tenant ON notes(tenant_kind, tenant_id, updated_at);

CREATE TABLE IF NOT EXISTS organizations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT    NOT NULL,
	owner_id   INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS org_members (
	org_id  INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL,
	role    TEXT    NOT NULL DEFAULT 'MEMBER',
	UNIQUE(org_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_org_members_user ON org_members(user_id);
`

// DB wraps a sql.DB with notebook-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
