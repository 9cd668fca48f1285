// Package memory implements store.Store in process.
package memory

import (
	"context"
	"sync"

	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Store owns the registry and the ledger. One mutex guards both so every
// operation is a single critical section.
type Store struct {
	mu         sync.Mutex
	identities map[string]model.Identity
	staged     map[string]model.Identity
	votings    map[string]model.Voting
}

// New returns an empty store.
func New() *Store {
	return &Store{
		identities: make(map[string]model.Identity),
		staged:     make(map[string]model.Identity),
		votings:    make(map[string]model.Voting),
	}
}

func (s *Store) StageIdentity(_ context.Context, identity model.Identity, policy store.RolePolicy) (model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identities[identity.Username]; ok {
		return 0, store.ErrAlreadyRegistered
	}
	if _, ok := s.staged[identity.Username]; ok {
		return 0, store.ErrAlreadyRegistered
	}

	if len(s.identities) == 0 && len(s.staged) > 0 {
		return 0, store.ErrAdminPending
	}

	identity.Role = policy(len(s.identities)+len(s.staged) == 0)
	s.staged[identity.Username] = identity
	return identity.Role, nil
}

func (s *Store) CommitIdentity(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.staged[username]
	if !ok {
		return store.ErrIdentityNotFound
	}
	delete(s.staged, username)
	s.identities[username] = identity
	return nil
}

func (s *Store) DiscardIdentity(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.staged, username)
	return nil
}

func (s *Store) FetchIdentity(_ context.Context, username string) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[username]
	if !ok {
		return nil, store.ErrIdentityNotFound
	}
	return &identity, nil
}

func (s *Store) PutVoting(_ context.Context, name string, v model.Voting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.votings[name] = v.Clone()
	return nil
}

func (s *Store) CastVote(_ context.Context, name string, choice model.Choice, username string) (*model.Voting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.votings[name]
	if !ok {
		return nil, store.ErrVotingNotFound
	}
	v.Apply(choice, username)
	s.votings[name] = v

	snapshot := v.Clone()
	return &snapshot, nil
}

func (s *Store) ListVotings(_ context.Context) (map[string]model.Voting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]model.Voting, len(s.votings))
	for name, v := range s.votings {
		out[name] = v.Clone()
	}
	return out, nil
}

func (s *Store) CheckConnectivity(context.Context) error {
	return nil
}
