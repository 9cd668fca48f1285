package gorm

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/store"
)

// Ensure VotingsStore implements store.VotingsStore
var _ store.VotingsStore = (*VotingsStore)(nil)

// VotingsStore implements store.VotingsStore using GORM
type VotingsStore struct {
	db *gorm.DB
}

// NewVotingsStore creates a new VotingsStore
func NewVotingsStore(db *gorm.DB) *VotingsStore {
	return &VotingsStore{db: db}
}

type voterRow struct {
	VotingName string `gorm:"column:voting_name"`
	Username   string `gorm:"column:username"`
}

// PutVoting upserts the voting and replaces its voter list
func (s *VotingsStore) PutVoting(ctx context.Context, name string, v model.Voting) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			`INSERT INTO votings (name, description, pro, cons) VALUES (?, ?, ?, ?) ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, pro = EXCLUDED.pro, cons = EXCLUDED.cons`,
			name, v.Description, v.Pro, v.Cons,
		).Error
		if err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM voting_voters WHERE voting_name = ?`, name).Error; err != nil {
			return err
		}
		for _, username := range v.Voted {
			if err := tx.Exec(`INSERT INTO voting_voters (voting_name, username) VALUES (?, ?)`, name, username).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CastVote increments a tally and appends the voter in one transaction.
// The UPDATE holds the voting's row lock until commit, so votes on the
// same voting are serialized.
func (s *VotingsStore) CastVote(ctx context.Context, name string, choice model.Choice, username string) (*model.Voting, error) {
	var pro, cons uint64
	switch choice {
	case model.ChoicePro:
		pro = 1
	case model.ChoiceCons:
		cons = 1
	}

	var out *model.Voting
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`UPDATE votings SET pro = pro + ?, cons = cons + ? WHERE name = ?`, pro, cons, name)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrVotingNotFound
		}
		if err := tx.Exec(`INSERT INTO voting_voters (voting_name, username) VALUES (?, ?)`, name, username).Error; err != nil {
			return err
		}

		var rows []model.VotingRow
		if err := tx.Raw(`SELECT name, description, pro, cons FROM votings WHERE name = ?`, name).Scan(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return store.ErrVotingNotFound
		}
		var voters []voterRow
		if err := tx.Raw(`SELECT voting_name, username FROM voting_voters WHERE voting_name = ? ORDER BY id`, name).Scan(&voters).Error; err != nil {
			return err
		}

		v := toVoting(rows[0], voters)
		out = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListVotings reads all votings and voters from one snapshot
func (s *VotingsStore) ListVotings(ctx context.Context) (map[string]model.Voting, error) {
	var (
		rows   []model.VotingRow
		voters []voterRow
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(`SELECT name, description, pro, cons FROM votings`).Scan(&rows).Error; err != nil {
			return err
		}
		return tx.Raw(`SELECT voting_name, username FROM voting_voters ORDER BY id`).Scan(&voters).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}

	byVoting := make(map[string][]voterRow)
	for _, v := range voters {
		byVoting[v.VotingName] = append(byVoting[v.VotingName], v)
	}

	out := make(map[string]model.Voting, len(rows))
	for _, row := range rows {
		out[row.Name] = toVoting(row, byVoting[row.Name])
	}
	return out, nil
}

func toVoting(row model.VotingRow, voters []voterRow) model.Voting {
	v := model.NewVoting(row.Description)
	v.Pro = row.Pro
	v.Cons = row.Cons
	for _, voter := range voters {
		v.Voted = append(v.Voted, voter.Username)
	}
	return v
}
