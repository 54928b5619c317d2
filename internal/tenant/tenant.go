// Package tenant carries the per-request tenant identity and the ownership
// guard applied to every entity looked up by bare id.
//
// The identity is a context value, never ambient state: it exists only on the
// context tree of the request that established it, so concurrent requests and
// later work scheduled on the same goroutine cannot observe it.
package tenant

import (
	"context"
	"fmt"
	"strconv"

	"github.com/starford/notebook/internal/apperr"
)

// Kind distinguishes personal spaces from organization spaces.
type Kind string

// Tenant kinds, stored verbatim in the database.
const (
	KindPersonal     Kind = "PERSONAL"
	KindOrganization Kind = "ORGANIZATION"
)

// ParseKind validates a kind coming from the wire or the database.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPersonal, KindOrganization:
		return k, nil
	}
	return "", fmt.Errorf("tenant: unknown kind %q: %w", s, apperr.ErrInvalidInput)
}

// Identity is the (id, kind) pair every note belongs to.
type Identity struct {
	ID   int64 `json:"id"`
	Kind Kind  `json:"kind"`
}

// Personal returns the personal tenant of a user; its id is the user id.
func Personal(userID int64) Identity {
	return Identity{ID: userID, Kind: KindPersonal}
}

// Organization returns the shared tenant of an organization.
func Organization(orgID int64) Identity {
	return Identity{ID: orgID, Kind: KindOrganization}
}

// Key renders the identity as a compact map key, e.g. "PERSONAL:7".
func (i Identity) Key() string {
	return string(i.Kind) + ":" + strconv.FormatInt(i.ID, 10)
}

func (i Identity) String() string { return i.Key() }

type ctxKey struct{}

// slot is stored on the context. A nil slot value marks an explicitly
// cleared identity.
type slot struct {
	id *Identity
}

// WithIdentity returns a child context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, slot{id: &id})
}

// Clear returns a child context on which no identity is visible, even if a
// parent carried one.
func Clear(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, slot{})
}

// FromContext returns the active identity or apperr.ErrMissingTenant.
func FromContext(ctx context.Context) (Identity, error) {
	s, ok := ctx.Value(ctxKey{}).(slot)
	if !ok || s.id == nil {
		return Identity{}, apperr.ErrMissingTenant
	}
	return *s.id, nil
}

// Owned is implemented by every tenant-scoped entity.
type Owned interface {
	TenantID() int64
	TenantKind() Kind
}

// AssertOwned fails with apperr.ErrAccessDenied unless entity belongs to id.
func AssertOwned(entity Owned, id Identity) error {
	if entity.TenantID() != id.ID || entity.TenantKind() != id.Kind {
		return fmt.Errorf("tenant %s: %w", id, apperr.ErrAccessDenied)
	}
	return nil
}
