// Package registry maps usernames to identities and decides the role each
// new identity receives: the first identity ever registered becomes Admin,
// every later one User.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/store"
)

// ErrReservationClosed is returned when a reservation is used after it was
// committed or discarded.
var ErrReservationClosed = errors.New("reservation already closed")

// DefaultPendingWait bounds how long Register waits for a staged first
// identity to be committed or discarded.
const DefaultPendingWait = 30 * time.Second

// Registry is the identity registry. It exposes no update or delete.
type Registry struct {
	store       store.IdentitiesStore
	pendingWait time.Duration
}

// New returns a registry over s.
func New(s store.IdentitiesStore) *Registry {
	return &Registry{store: s, pendingWait: DefaultPendingWait}
}

// WithPendingWait returns a copy of r that waits at most d for a pending
// first registration. A zero d disables waiting.
func (r *Registry) WithPendingWait(d time.Duration) *Registry {
	cp := *r
	cp.pendingWait = d
	return &cp
}

// RoleFor is the role assignment policy.
func RoleFor(empty bool) model.Role {
	if empty {
		return model.RoleAdmin
	}
	return model.RoleUser
}

// Register stages a new identity. The identity becomes visible to Lookup
// only after the returned reservation is committed.
//
// While the first identity is staged the role of any other one is not
// decided yet: Register retries until that registration is committed or
// discarded, ctx is done, or the pending wait runs out. In the last two
// cases the error wraps store.ErrAdminPending.
func (r *Registry) Register(ctx context.Context, username, salt, callerID, publicKey string) (*Reservation, error) {
	identity := model.Identity{
		Username:  username,
		Salt:      salt,
		CallerID:  callerID,
		PublicKey: publicKey,
	}

	var (
		role    model.Role
		pending bool
	)
	stage := func() error {
		var err error
		role, err = r.store.StageIdentity(ctx, identity, RoleFor)
		pending = errors.Is(err, store.ErrAdminPending)
		if err != nil && !pending {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(stage, backoff.WithContext(r.pendingBackOff(), ctx)); err != nil {
		if pending && !errors.Is(err, store.ErrAdminPending) {
			err = fmt.Errorf("%w: %w", store.ErrAdminPending, err)
		}
		return nil, err
	}
	return &Reservation{store: r.store, username: username, role: role}, nil
}

func (r *Registry) pendingBackOff() backoff.BackOff {
	if r.pendingWait <= 0 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = r.pendingWait
	return b
}

// Lookup returns the identity registered under username.
func (r *Registry) Lookup(ctx context.Context, username string) (*model.Identity, error) {
	return r.store.FetchIdentity(ctx, username)
}

// SaltOf returns the salt stored with username.
func (r *Registry) SaltOf(ctx context.Context, username string) (string, error) {
	identity, err := r.store.FetchIdentity(ctx, username)
	if err != nil {
		return "", err
	}
	return identity.Salt, nil
}

// IsRegistered reports whether username has a committed identity.
func (r *Registry) IsRegistered(ctx context.Context, username string) (bool, error) {
	_, err := r.store.FetchIdentity(ctx, username)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Reservation is a staged identity awaiting Commit or Discard.
type Reservation struct {
	store    store.IdentitiesStore
	username string
	role     model.Role
	closed   bool
}

// Role is the role fixed when the identity was staged.
func (res *Reservation) Role() model.Role {
	return res.role
}

// Username is the reserved username.
func (res *Reservation) Username() string {
	return res.username
}

// Commit makes the identity visible.
func (res *Reservation) Commit(ctx context.Context) error {
	if res.closed {
		return ErrReservationClosed
	}
	if err := res.store.CommitIdentity(ctx, res.username); err != nil {
		return fmt.Errorf("commit identity %s: %w", res.username, err)
	}
	res.closed = true
	return nil
}

// Discard releases the username. It is a no-op after Commit or Discard.
func (res *Reservation) Discard(ctx context.Context) error {
	if res.closed {
		return nil
	}
	res.closed = true
	return res.store.DiscardIdentity(ctx, res.username)
}
