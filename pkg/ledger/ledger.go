// Package ledger holds the votings. Every mutation is gated by a token:
// creating a voting needs an Admin token, casting a vote any valid token.
package ledger

import (
	"context"
	"errors"

	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/store"
	"github.com/pu0238/vote-me/pkg/token"
)

// ErrUnauthorized is returned when a valid token lacks the required role.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks bearer tokens.
type Verifier interface {
	Verify(ctx context.Context, token string) (*token.Payload, error)
}

// Ledger is the voting ledger.
type Ledger struct {
	store    store.VotingsStore
	verifier Verifier
}

// New returns a ledger over s whose mutations are checked by v.
func New(s store.VotingsStore, v Verifier) *Ledger {
	return &Ledger{store: s, verifier: v}
}

// Create stores an empty voting under name. An existing voting with the
// same name is replaced.
func (l *Ledger) Create(ctx context.Context, tok, name, description string) (*token.Payload, error) {
	payload, err := l.verifier.Verify(ctx, tok)
	if err != nil {
		return nil, err
	}
	if payload.Rank != model.RoleAdmin {
		return payload, ErrUnauthorized
	}
	if err := l.store.PutVoting(ctx, name, model.NewVoting(description)); err != nil {
		return payload, err
	}
	return payload, nil
}

// CastVote records a vote by the token's user and returns the voting after
// the vote. Repeated votes by the same user are all counted.
func (l *Ledger) CastVote(ctx context.Context, tok, name string, choice model.Choice) (*model.Voting, *token.Payload, error) {
	payload, err := l.verifier.Verify(ctx, tok)
	if err != nil {
		return nil, nil, err
	}
	v, err := l.store.CastVote(ctx, name, choice, payload.Username)
	if err != nil {
		return nil, payload, err
	}
	return v, payload, nil
}

// List returns every voting. No token is needed.
func (l *Ledger) List(ctx context.Context) (map[string]model.Voting, error) {
	return l.store.ListVotings(ctx)
}
