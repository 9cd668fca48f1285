package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/store"
)

// DefaultStaleAfter is how long a pending identity row may live before a
// later registration removes it. Registrations are bounded by the oracle
// timeout, so an older row belongs to a process that died mid-registration.
const DefaultStaleAfter = 5 * time.Minute

// Ensure IdentitiesStore implements store.IdentitiesStore
var _ store.IdentitiesStore = (*IdentitiesStore)(nil)

// IdentitiesStore implements store.IdentitiesStore using GORM
type IdentitiesStore struct {
	db         *gorm.DB
	now        func() time.Time
	staleAfter time.Duration
}

// NewIdentitiesStore creates a new IdentitiesStore
func NewIdentitiesStore(db *gorm.DB) *IdentitiesStore {
	return &IdentitiesStore{db: db, now: time.Now, staleAfter: DefaultStaleAfter}
}

type identityCounts struct {
	Committed int64
	Staged    int64
	Taken     int64
}

// StageIdentity inserts a pending identity row. The table lock makes the
// emptiness check and the insert one step across server instances.
func (s *IdentitiesStore) StageIdentity(ctx context.Context, identity model.Identity, policy store.RolePolicy) (model.Role, error) {
	var role model.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`LOCK TABLE identities IN SHARE ROW EXCLUSIVE MODE`).Error; err != nil {
			return err
		}

		cutoff := s.now().Add(-s.staleAfter)
		if err := tx.Where("pending AND created_at < ?", cutoff).Delete(&model.Identity{}).Error; err != nil {
			return err
		}

		var counts identityCounts
		err := tx.Raw(`SELECT count(*) FILTER (WHERE NOT pending) AS committed, count(*) FILTER (WHERE pending) AS staged, count(*) FILTER (WHERE username = ?) AS taken FROM identities`,
			identity.Username).Scan(&counts).Error
		if err != nil {
			return err
		}
		switch {
		case counts.Taken > 0:
			return store.ErrAlreadyRegistered
		case counts.Committed == 0 && counts.Staged > 0:
			return store.ErrAdminPending
		}

		role = policy(counts.Committed+counts.Staged == 0)
		identity.Role = role
		identity.Pending = true
		identity.CreatedAt = s.now()
		return tx.Create(&identity).Error
	})
	if err != nil {
		return 0, err
	}
	return role, nil
}

// CommitIdentity clears the pending flag
func (s *IdentitiesStore) CommitIdentity(ctx context.Context, username string) error {
	res := s.db.WithContext(ctx).
		Model(&model.Identity{}).
		Where("username = ? AND pending", username).
		Update("pending", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrIdentityNotFound
	}
	return nil
}

// DiscardIdentity deletes a pending identity row
func (s *IdentitiesStore) DiscardIdentity(ctx context.Context, username string) error {
	return s.db.WithContext(ctx).
		Where("username = ? AND pending", username).
		Delete(&model.Identity{}).Error
}

// PurgePending deletes every pending identity row. It is run on startup,
// before the server accepts registrations.
func (s *IdentitiesStore) PurgePending(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("pending").Delete(&model.Identity{})
	return res.RowsAffected, res.Error
}

// FetchIdentity loads a committed identity
func (s *IdentitiesStore) FetchIdentity(ctx context.Context, username string) (*model.Identity, error) {
	var identity model.Identity
	err := s.db.WithContext(ctx).
		Where("username = ? AND NOT pending", username).
		First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}
