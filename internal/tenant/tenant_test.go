package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notebook/internal/apperr"
)

type entity struct {
	id   int64
	kind Kind
}

func (e entity) TenantID() int64  { return e.id }
func (e entity) TenantKind() Kind { return e.kind }

func TestFromContext_Missing(t *testing.T) {
	_, err := FromContext(context.Background())
	require.ErrorIs(t, err, apperr.ErrMissingTenant)
}

func TestWithIdentity_RoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), Organization(42))
	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: 42, Kind: KindOrganization}, got)
}

func TestClear_HidesParentIdentity(t *testing.T) {
	parent := WithIdentity(context.Background(), Personal(1))
	cleared := Clear(parent)

	_, err := FromContext(cleared)
	require.ErrorIs(t, err, apperr.ErrMissingTenant)

	// The parent is untouched.
	got, err := FromContext(parent)
	require.NoError(t, err)
	assert.Equal(t, Personal(1), got)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("ORGANIZATION")
	require.NoError(t, err)
	assert.Equal(t, KindOrganization, k)

	_, err = ParseKind("personal")
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestAssertOwned(t *testing.T) {
	cases := []struct {
		name   string
		entity entity
		id     Identity
		denied bool
	}{
		{"same tenant", entity{7, KindPersonal}, Personal(7), false},
		{"other id", entity{8, KindPersonal}, Personal(7), true},
		{"same id other kind", entity{7, KindOrganization}, Personal(7), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := AssertOwned(tc.entity, tc.id)
			if tc.denied {
				assert.ErrorIs(t, err, apperr.ErrAccessDenied)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// Two operations with different identities are forced to interleave; each
// must only ever observe its own identity.
func TestIdentity_InterleavedOperations(t *testing.T) {
	aSet := make(chan struct{})
	bSet := make(chan struct{})

	var g errgroup.Group
	var seenA, seenB Identity

	g.Go(func() error {
		ctx := WithIdentity(context.Background(), Personal(1))
		close(aSet)
		<-bSet
		id, err := FromContext(ctx)
		seenA = id
		return err
	})
	g.Go(func() error {
		<-aSet
		ctx := WithIdentity(context.Background(), Organization(2))
		close(bSet)
		id, err := FromContext(ctx)
		seenB = id
		return err
	})

	require.NoError(t, g.Wait())
	assert.Equal(t, Personal(1), seenA)
	assert.Equal(t, Organization(2), seenB)
}

// A single worker goroutine serving consecutive operations must not carry the
// identity of one operation into the next.
func TestIdentity_WorkerReuse(t *testing.T) {
	type job struct {
		ctx  context.Context
		done chan error
	}
	jobs := make(chan job)
	go func() {
		for j := range jobs {
			_, err := FromContext(j.ctx)
			j.done <- err
		}
	}()
	defer close(jobs)

	first := job{ctx: WithIdentity(context.Background(), Personal(1)), done: make(chan error, 1)}
	jobs <- first
	require.NoError(t, <-first.done)

	second := job{ctx: context.Background(), done: make(chan error, 1)}
	jobs <- second
	require.ErrorIs(t, <-second.done, apperr.ErrMissingTenant)
}
