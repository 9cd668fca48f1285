package gorm

import (
	"gorm.io/gorm"

	"github.com/pu0238/vote-me/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Store bundles the GORM stores behind store.Store.
type Store struct {
	*IdentitiesStore
	*VotingsStore
	*HealthStore
}

// New returns a Store backed by db.
func New(db *gorm.DB) *Store {
	return &Store{
		IdentitiesStore: NewIdentitiesStore(db),
		VotingsStore:    NewVotingsStore(db),
		HealthStore:     NewHealthStore(db),
	}
}
