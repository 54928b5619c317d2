// Package testutil provides shared test helpers for databases and tenant
// contexts.
package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/notebook/internal/store"
	"github.com/starford/notebook/internal/tenant"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notebook-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// As returns a background context carrying id.
func As(id tenant.Identity) context.Context {
	return tenant.WithIdentity(context.Background(), id)
}

// Clock is a deterministic clock advancing one second per call.
type Clock struct {
	mu  sync.Mutex
	cur time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{cur: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

// Now returns the next instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}
