package service

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/rocketscienceinc/goban-server/internal/apperror"
	"github.com/rocketscienceinc/goban-server/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockArchiveRepo struct {
	mock.Mock
}

func (m *mockArchiveRepo) CreateGame(ctx context.Context, black, white string) (*entity.ArchivedGame, error) {
	args := m.Called(ctx, black, white)
	game, _ := args.Get(0).(*entity.ArchivedGame)
	return game, args.Error(1)
}

func (m *mockArchiveRepo) GetGame(ctx context.Context, id int64) (*entity.ArchivedGame, error) {
	args := m.Called(ctx, id)
	game, _ := args.Get(0).(*entity.ArchivedGame)
	return game, args.Error(1)
}

func (m *mockArchiveRepo) AddMove(ctx context.Context, move *entity.ArchivedMove) (*entity.ArchivedMove, error) {
	args := m.Called(ctx, move)
	stored, _ := args.Get(0).(*entity.ArchivedMove)
	return stored, args.Error(1)
}

func (m *mockArchiveRepo) ListMoves(ctx context.Context, gameID int64) ([]*entity.ArchivedMove, error) {
	args := m.Called(ctx, gameID)
	moves, _ := args.Get(0).([]*entity.ArchivedMove)
	return moves, args.Error(1)
}

func (m *mockArchiveRepo) FinishGame(ctx context.Context, id int64, result string) (*entity.ArchivedGame, error) {
	args := m.Called(ctx, id, result)
	game, _ := args.Get(0).(*entity.ArchivedGame)
	return game, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestArchiveService_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Names are trimmed and stored", func(t *testing.T) {
		repo := &mockArchiveRepo{}
		repo.On("CreateGame", mock.Anything, "alice", "bob").
			Return(&entity.ArchivedGame{ID: 1, Black: "alice", White: "bob"}, nil).
			Once()

		game, err := NewArchiveService(testLogger(), repo).CreateGame(ctx, " alice ", "bob")

		require.NoError(t, err)
		assert.Equal(t, int64(1), game.ID)
		repo.AssertExpectations(t)
	})

	t.Run("Both players are required", func(t *testing.T) {
		repo := &mockArchiveRepo{}

		_, err := NewArchiveService(testLogger(), repo).CreateGame(ctx, "alice", "  ")

		require.ErrorIs(t, err, ErrPlayersRequired)
		repo.AssertNotCalled(t, "CreateGame", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestArchiveService_FinishGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown result is rejected", func(t *testing.T) {
		repo := &mockArchiveRepo{}

		_, err := NewArchiveService(testLogger(), repo).FinishGame(ctx, 1, "MAYBE")

		require.ErrorIs(t, err, ErrUnknownResult)
	})

	t.Run("Missing game is reported", func(t *testing.T) {
		repo := &mockArchiveRepo{}
		repo.On("FinishGame", mock.Anything, int64(9), entity.ResultDraw).
			Return(nil, apperror.ErrGameNotFound).
			Once()

		_, err := NewArchiveService(testLogger(), repo).FinishGame(ctx, 9, entity.ResultDraw)

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestArchiveService_RawMoves(t *testing.T) {
	// Given: three moves, the second a pass
	repo := &mockArchiveRepo{}
	repo.On("ListMoves", mock.Anything, int64(1)).Return([]*entity.ArchivedMove{
		{MoveNumber: 1, ToRow: 3, ToCol: 4},
		{MoveNumber: 2, ToRow: -1, ToCol: -1, Extra: entity.PassExtra},
		{MoveNumber: 3, ToRow: 0, ToCol: 18},
	}, nil).Once()

	// When: rendering the raw history
	lines, err := NewArchiveService(testLogger(), repo).RawMoves(context.Background(), 1)

	// Then: colours alternate starting with black
	require.NoError(t, err)
	assert.Equal(t, []string{"BLACK 3 4", "WHITE PASS", "BLACK 0 18"}, lines)
}

func TestArchiveService_RawMovesRecordedColour(t *testing.T) {
	// Given: black resumed scoring, so white moves at an even index
	repo := &mockArchiveRepo{}
	repo.On("ListMoves", mock.Anything, int64(2)).Return([]*entity.ArchivedMove{
		{MoveNumber: 1, ToRow: 0, ToCol: 0, Extra: `{"player":"p0","color":"BLACK","captures":0}`},
		{MoveNumber: 2, ToRow: -1, ToCol: -1, Extra: `{"player":"p1","color":"WHITE","captures":0,"pass":true}`},
		{MoveNumber: 3, ToRow: -1, ToCol: -1, Extra: `{"player":"p0","color":"BLACK","captures":0,"pass":true}`},
		{MoveNumber: 4, ToRow: 2, ToCol: 1, Extra: `{"player":"p1","color":"WHITE","captures":0}`},
	}, nil).Once()

	// When: rendering the raw history
	lines, err := NewArchiveService(testLogger(), repo).RawMoves(context.Background(), 2)

	// Then: each line carries the colour that was recorded
	require.NoError(t, err)
	assert.Equal(t, []string{"BLACK 0 0", "WHITE PASS", "BLACK PASS", "WHITE 2 1"}, lines)
}
