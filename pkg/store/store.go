package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/pu0238/vote-me/pkg/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrIdentityNotFound  = fmt.Errorf("identity %w", ErrNotFound)
	ErrVotingNotFound    = fmt.Errorf("voting %w", ErrNotFound)
	ErrAlreadyRegistered = errors.New("username already registered")

	// ErrAdminPending is returned while the first identity is staged but
	// not yet committed or discarded. The caller should retry.
	ErrAdminPending = errors.New("first registration in progress")
)

// RolePolicy picks the role of a new identity. empty reports whether no
// identity, committed or staged, existed at the time of the check.
type RolePolicy func(empty bool) model.Role

// IdentitiesStore holds the identity registry.
type IdentitiesStore interface {
	// StageIdentity reserves identity.Username and returns the role chosen
	// by policy. It fails with ErrAlreadyRegistered if the username is
	// committed or staged, and with ErrAdminPending if no identity is
	// committed yet but another one is staged.
	StageIdentity(ctx context.Context, identity model.Identity, policy RolePolicy) (model.Role, error)

	// CommitIdentity makes a staged identity visible.
	CommitIdentity(ctx context.Context, username string) error

	// DiscardIdentity drops a staged identity. Discarding an unknown
	// username is a no-op.
	DiscardIdentity(ctx context.Context, username string) error

	// FetchIdentity returns a committed identity or ErrIdentityNotFound.
	FetchIdentity(ctx context.Context, username string) (*model.Identity, error)
}

// VotingsStore holds the voting ledger.
type VotingsStore interface {
	// PutVoting stores v under name, replacing any existing voting.
	PutVoting(ctx context.Context, name string, v model.Voting) error

	// CastVote tallies one vote and returns the voting after the vote.
	// It fails with ErrVotingNotFound if no voting exists under name.
	CastVote(ctx context.Context, name string, choice model.Choice, username string) (*model.Voting, error)

	// ListVotings returns a snapshot of all votings.
	ListVotings(ctx context.Context) (map[string]model.Voting, error)
}

// HealthStore reports whether the backing storage is reachable.
type HealthStore interface {
	CheckConnectivity(ctx context.Context) error
}

// Store is everything the service needs from storage.
type Store interface {
	IdentitiesStore
	VotingsStore
	HealthStore
}
