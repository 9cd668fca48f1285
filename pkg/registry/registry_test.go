package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/store"
	"github.com/pu0238/vote-me/pkg/store/memory"
)

func TestRegisterAssignsRoles(t *testing.T) {
	ctx := context.Background()
	r := New(memory.New())

	for i, name := range []string{"alice", "bob", "carol"} {
		res, err := r.Register(ctx, name, "salt-"+name, "caller-"+name, "02ab")
		require.NoError(t, err)
		require.NoError(t, res.Commit(ctx))

		want := model.RoleUser
		if i == 0 {
			want = model.RoleAdmin
		}
		identity, err := r.Lookup(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, want, identity.Role, name)
		assert.Equal(t, "caller-"+name, identity.CallerID)
	}
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	ctx := context.Background()
	r := New(memory.New())

	res, err := r.Register(ctx, "alice", "s", "c", "k")
	require.NoError(t, err)

	_, err = r.Register(ctx, "alice", "s2", "c2", "k2")
	assert.ErrorIs(t, err, store.ErrAlreadyRegistered)

	require.NoError(t, res.Commit(ctx))
	_, err = r.Register(ctx, "alice", "s2", "c2", "k2")
	assert.ErrorIs(t, err, store.ErrAlreadyRegistered)

	salt, err := r.SaltOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "s", salt)
}

func TestDiscardLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	r := New(memory.New())

	res, err := r.Register(ctx, "alice", "s", "c", "k")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.Role())
	require.NoError(t, res.Discard(ctx))
	require.NoError(t, res.Discard(ctx))
	assert.ErrorIs(t, res.Commit(ctx), ErrReservationClosed)

	ok, err := r.IsRegistered(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.SaltOf(ctx, "alice")
	assert.ErrorIs(t, err, store.ErrIdentityNotFound)

	res, err = r.Register(ctx, "alice", "s", "c", "k")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.Role())
}

func TestRegisterWaitsForPendingFirstIdentity(t *testing.T) {
	ctx := context.Background()
	r := New(memory.New())

	alice, err := r.Register(ctx, "alice", "s", "c1", "k")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, alice.Role())

	type result struct {
		res *Reservation
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := r.Register(ctx, "bob", "s", "c2", "k")
		done <- result{res, err}
	}()

	select {
	case <-done:
		t.Fatal("bob was staged while alice's registration was still open")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, alice.Discard(ctx))

	select {
	case got := <-done:
		require.NoError(t, got.err)
		assert.Equal(t, model.RoleAdmin, got.res.Role(), "bob is the first identity ever committed")
		require.NoError(t, got.res.Commit(ctx))
	case <-time.After(5 * time.Second):
		t.Fatal("bob's registration did not resume after alice was discarded")
	}
}

func TestRegisterGivesUpWhileFirstIdentityPending(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	r := New(s)

	_, err := r.Register(ctx, "alice", "s", "c1", "k")
	require.NoError(t, err)

	_, err = r.WithPendingWait(0).Register(ctx, "bob", "s", "c2", "k")
	assert.ErrorIs(t, err, store.ErrAdminPending)

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = r.Register(short, "bob", "s", "c2", "k")
	assert.ErrorIs(t, err, store.ErrAdminPending)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ok, err := r.IsRegistered(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}
