package gorm

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/store"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 mockDB,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		},
	)
	require.NoError(t, err)

	return gormDB, mock
}

func firstIsAdmin(empty bool) model.Role {
	if empty {
		return model.RoleAdmin
	}
	return model.RoleUser
}

var stageNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func newIdentitiesStore(db *gorm.DB) *IdentitiesStore {
	s := NewIdentitiesStore(db)
	s.now = func() time.Time { return stageNow }
	return s
}

func expectStage(mock sqlmock.Sqlmock, committed, staged, taken int) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`LOCK TABLE identities IN SHARE ROW EXCLUSIVE MODE`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "identities" WHERE pending AND created_at < $1`)).
		WithArgs(stageNow.Add(-DefaultStaleAfter)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FILTER (WHERE NOT pending) AS committed`)).
		WillReturnRows(sqlmock.NewRows([]string{"committed", "staged", "taken"}).AddRow(committed, staged, taken))
}

func TestStageIdentity(t *testing.T) {
	tests := []struct {
		name      string
		committed int
		wantRole  model.Role
	}{
		{"first identity is admin", 0, model.RoleAdmin},
		{"later identity is user", 3, model.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupTestDB(t)
			s := newIdentitiesStore(db)

			expectStage(mock, tt.committed, 0, 0)
			mock.ExpectExec(`INSERT INTO "identities"`).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			role, err := s.StageIdentity(context.Background(), model.Identity{
				Username:  "alice",
				Salt:      "salt",
				CallerID:  "caller",
				PublicKey: "02ab",
			}, firstIsAdmin)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, role)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStageIdentityRefusals(t *testing.T) {
	tests := []struct {
		name      string
		committed int
		staged    int
		taken     int
		wantErr   error
	}{
		{"username taken", 1, 0, 1, store.ErrAlreadyRegistered},
		{"username staged", 0, 1, 1, store.ErrAlreadyRegistered},
		{"first identity still pending", 0, 1, 0, store.ErrAdminPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupTestDB(t)
			s := newIdentitiesStore(db)

			expectStage(mock, tt.committed, tt.staged, tt.taken)
			mock.ExpectRollback()

			_, err := s.StageIdentity(context.Background(), model.Identity{Username: "bob"}, firstIsAdmin)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStageIdentityLockFailure(t *testing.T) {
	db, mock := setupTestDB(t)
	s := newIdentitiesStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE identities`).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err := s.StageIdentity(context.Background(), model.Identity{Username: "alice"}, firstIsAdmin)
	assert.EqualError(t, err, "lock timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitAndDiscardIdentity(t *testing.T) {
	db, mock := setupTestDB(t)
	s := newIdentitiesStore(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "identities" SET "pending"=$1 WHERE username = $2 AND pending`)).
		WithArgs(false, "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, s.CommitIdentity(ctx, "alice"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "identities" SET "pending"`).
		WithArgs(false, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	assert.ErrorIs(t, s.CommitIdentity(ctx, "ghost"), store.ErrIdentityNotFound)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "identities" WHERE username = $1 AND pending`)).
		WithArgs("bob").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, s.DiscardIdentity(ctx, "bob"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgePending(t *testing.T) {
	db, mock := setupTestDB(t)
	s := newIdentitiesStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "identities" WHERE pending`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := s.PurgePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchIdentity(t *testing.T) {
	db, mock := setupTestDB(t)
	s := newIdentitiesStore(db)
	ctx := context.Background()

	columns := []string{"username", "salt", "caller_id", "public_key", "role", "pending"}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "identities" WHERE username = $1 AND NOT pending`)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("alice", "s", "c1", "02ab", "Admin", false))

	identity, err := s.FetchIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, &model.Identity{
		Username:  "alice",
		Salt:      "s",
		CallerID:  "c1",
		PublicKey: "02ab",
		Role:      model.RoleAdmin,
	}, identity)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "identities" WHERE username = $1 AND NOT pending`)).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err = s.FetchIdentity(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrIdentityNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutVotingOverwrites(t *testing.T) {
	db, mock := setupTestDB(t)
	s := NewVotingsStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO votings (name, description, pro, cons)`)).
		WithArgs("v1", "desc", 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM voting_voters WHERE voting_name = $1`)).
		WithArgs("v1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, s.PutVoting(context.Background(), "v1", model.NewVoting("desc")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCastVote(t *testing.T) {
	db, mock := setupTestDB(t)
	s := NewVotingsStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE votings SET pro = pro + $1, cons = cons + $2 WHERE name = $3`)).
		WithArgs(1, 0, "v1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO voting_voters (voting_name, username) VALUES ($1, $2)`)).
		WithArgs("v1", "bob").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, description, pro, cons FROM votings WHERE name = $1`)).
		WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "description", "pro", "cons"}).AddRow("v1", "desc", 2, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT voting_name, username FROM voting_voters WHERE voting_name = $1 ORDER BY id`)).
		WithArgs("v1").
		WillReturnRows(sqlmock.NewRows([]string{"voting_name", "username"}).AddRow("v1", "bob").AddRow("v1", "bob"))
	mock.ExpectCommit()

	v, err := s.CastVote(context.Background(), "v1", model.ChoicePro, "bob")
	require.NoError(t, err)
	assert.Equal(t, &model.Voting{Description: "desc", Pro: 2, Cons: 0, Voted: []string{"bob", "bob"}}, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCastVoteMissingVoting(t *testing.T) {
	db, mock := setupTestDB(t)
	s := NewVotingsStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE votings SET pro = pro`).
		WithArgs(0, 1, "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.CastVote(context.Background(), "nope", model.ChoiceCons, "bob")
	assert.ErrorIs(t, err, store.ErrVotingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListVotings(t *testing.T) {
	db, mock := setupTestDB(t)
	s := NewVotingsStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, description, pro, cons FROM votings`)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "description", "pro", "cons"}).
			AddRow("v1", "desc", 1, 0).
			AddRow("v2", "other", 0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT voting_name, username FROM voting_voters ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows([]string{"voting_name", "username"}).AddRow("v1", "bob"))
	mock.ExpectCommit()

	all, err := s.ListVotings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]model.Voting{
		"v1": {Description: "desc", Pro: 1, Cons: 0, Voted: []string{"bob"}},
		"v2": {Description: "other", Pro: 0, Cons: 0, Voted: []string{}},
	}, all)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckConnectivity(t *testing.T) {
	db, mock := setupTestDB(t)
	s := New(db)

	mock.ExpectExec(`SELECT 1`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.NoError(t, s.CheckConnectivity(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
