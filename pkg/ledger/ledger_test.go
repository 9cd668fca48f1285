package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/store"
	"github.com/pu0238/vote-me/pkg/store/memory"
	"github.com/pu0238/vote-me/pkg/token"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, tok string) (*token.Payload, error) {
	args := m.Called(ctx, tok)
	p, _ := args.Get(0).(*token.Payload)
	return p, args.Error(1)
}

func newLedger() (*Ledger, *mockVerifier) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "alice-token").Return(&token.Payload{Username: "alice", Rank: model.RoleAdmin}, nil)
	v.On("Verify", mock.Anything, "bob-token").Return(&token.Payload{Username: "bob", Rank: model.RoleUser}, nil)
	v.On("Verify", mock.Anything, mock.Anything).Return(nil, token.ErrInvalidToken)
	return New(memory.New(), v), v
}

func TestScenario(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger()

	_, err := l.Create(ctx, "alice-token", "v1", "desc")
	require.NoError(t, err)

	v, payload, err := l.CastVote(ctx, "bob-token", "v1", model.ChoicePro)
	require.NoError(t, err)
	assert.Equal(t, "bob", payload.Username)
	assert.Equal(t, &model.Voting{Description: "desc", Pro: 1, Cons: 0, Voted: []string{"bob"}}, v)

	all, err := l.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.Voting{
		"v1": {Description: "desc", Pro: 1, Cons: 0, Voted: []string{"bob"}},
	}, all)
}

func TestDuplicateVotesAreCounted(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger()

	_, err := l.Create(ctx, "alice-token", "v1", "desc")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _, err := l.CastVote(ctx, "bob-token", "v1", model.ChoicePro)
		require.NoError(t, err)
	}

	all, err := l.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), all["v1"].Pro)
	assert.Equal(t, []string{"bob", "bob"}, all["v1"].Voted)
}

func TestCreateRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger()

	_, err := l.Create(ctx, "bob-token", "v1", "desc")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = l.Create(ctx, "garbage", "v1", "desc")
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	all, err := l.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateReplacesExistingVoting(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger()

	_, err := l.Create(ctx, "alice-token", "v1", "first")
	require.NoError(t, err)
	_, _, err = l.CastVote(ctx, "bob-token", "v1", model.ChoiceCons)
	require.NoError(t, err)

	_, err = l.Create(ctx, "alice-token", "v1", "second")
	require.NoError(t, err)

	all, err := l.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.NewVoting("second"), all["v1"])
}

func TestCastVoteErrors(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger()

	_, _, err := l.CastVote(ctx, "bob-token", "missing", model.ChoicePro)
	assert.ErrorIs(t, err, store.ErrVotingNotFound)

	_, err = l.Create(ctx, "alice-token", "v1", "desc")
	require.NoError(t, err)

	_, _, err = l.CastVote(ctx, "forged", "v1", model.ChoicePro)
	assert.ErrorIs(t, err, token.ErrInvalidToken)

	all, err := l.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.NewVoting("desc"), all["v1"])
}
