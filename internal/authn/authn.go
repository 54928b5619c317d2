// Package authn resolves bearer tokens to user ids. Token issuance, password
// hashing and sessions live outside this service; it only consumes a tokens
// file maintained by whoever provisions users.
package authn

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnauthenticated is returned when a request carries no usable credential.
var ErrUnauthenticated = errors.New("unauthenticated")

type userKey struct{}

// WithUser returns a child context carrying the authenticated user id.
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the authenticated user id.
func UserFromContext(ctx context.Context) (int64, error) {
	id, ok := ctx.Value(userKey{}).(int64)
	if !ok {
		return 0, ErrUnauthenticated
	}
	return id, nil
}

// TokensFile is the on-disk format of the tokens file.
type TokensFile struct {
	Tokens []TokenEntry `yaml:"tokens"`
}

// TokenEntry binds one bearer token to a user.
type TokenEntry struct {
	Token  string `yaml:"token"`
	UserID int64  `yaml:"user_id"`
}

// Registry maps bearer tokens to user ids. It is safe for concurrent use and
// may be reloaded while serving.
type Registry struct {
	mu     sync.RWMutex
	tokens map[string]int64
}

// NewRegistry returns a registry holding the given tokens.
func NewRegistry(tokens map[string]int64) *Registry {
	r := &Registry{tokens: make(map[string]int64, len(tokens))}
	for k, v := range tokens {
		r.tokens[k] = v
	}
	return r
}

// Lookup returns the user bound to token.
func (r *Registry) Lookup(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.tokens[token]
	return id, ok
}

// Len returns the number of known tokens.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}

// LoadFile replaces the registry contents with the tokens in path. Tokens are
// taken verbatim, without environment expansion. On any error the previous
// contents are kept.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("authn: read tokens file %s: %w", path, err)
	}
	var f TokensFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("authn: parse tokens file %s: %w", path, err)
	}

	next := make(map[string]int64, len(f.Tokens))
	for i, e := range f.Tokens {
		if e.Token == "" || e.UserID <= 0 {
			return fmt.Errorf("authn: tokens file %s: entry %d needs a token and a positive user_id", path, i)
		}
		next[e.Token] = e.UserID
	}

	r.mu.Lock()
	r.tokens = next
	r.mu.Unlock()
	return nil
}
