package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/goban-server/internal/entity"
)

var (
	ErrPlayersRequired = errors.New("black and white are required")
	ErrUnknownResult   = errors.New("unknown result")
)

type archiveRepo interface {
	CreateGame(ctx context.Context, black, white string) (*entity.ArchivedGame, error)
	GetGame(ctx context.Context, id int64) (*entity.ArchivedGame, error)
	AddMove(ctx context.Context, move *entity.ArchivedMove) (*entity.ArchivedMove, error)
	ListMoves(ctx context.Context, gameID int64) ([]*entity.ArchivedMove, error)
	FinishGame(ctx context.Context, id int64, result string) (*entity.ArchivedGame, error)
}

// ArchiveService keeps the move history of played games.
type ArchiveService struct {
	logger *slog.Logger
	repo   archiveRepo
}

func NewArchiveService(logger *slog.Logger, repo archiveRepo) *ArchiveService {
	return &ArchiveService{
		logger: logger.With("component", "archive"),
		repo:   repo,
	}
}

func (that *ArchiveService) CreateGame(ctx context.Context, black, white string) (*entity.ArchivedGame, error) {
	black, white = strings.TrimSpace(black), strings.TrimSpace(white)
	if black == "" || white == "" {
		return nil, ErrPlayersRequired
	}

	game, err := that.repo.CreateGame(ctx, black, white)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Info("game archived", "gameID", game.ID, "black", black, "white", white)

	return game, nil
}

func (that *ArchiveService) GetGame(ctx context.Context, id int64) (*entity.ArchivedGame, error) {
	return that.repo.GetGame(ctx, id)
}

func (that *ArchiveService) RecordMove(ctx context.Context, move *entity.ArchivedMove) (*entity.ArchivedMove, error) {
	stored, err := that.repo.AddMove(ctx, move)
	if err != nil {
		return nil, fmt.Errorf("failed to record move: %w", err)
	}

	return stored, nil
}

func (that *ArchiveService) Moves(ctx context.Context, gameID int64) ([]*entity.ArchivedMove, error) {
	return that.repo.ListMoves(ctx, gameID)
}

func (that *ArchiveService) FinishGame(ctx context.Context, id int64, result string) (*entity.ArchivedGame, error) {
	switch result {
	case entity.ResultBlackWin, entity.ResultWhiteWin, entity.ResultDraw,
		entity.ResultBlackWinResign, entity.ResultWhiteWinResign:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownResult, result)
	}

	game, err := that.repo.FinishGame(ctx, id, result)
	if err != nil {
		return nil, fmt.Errorf("failed to finish game: %w", err)
	}

	that.logger.Info("game finished", "gameID", id, "result", result)

	return game, nil
}

// RawMoves renders the history as one "<COLOR> <row> <col>" line per move.
// The colour is the recorded mover; moves without one alternate from black.
// Passes render as "<COLOR> PASS".
func (that *ArchiveService) RawMoves(ctx context.Context, gameID int64) ([]string, error) {
	moves, err := that.repo.ListMoves(ctx, gameID)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(moves))
	for i, move := range moves {
		color := move.Color()
		if color == entity.Empty {
			color = entity.Black
			if i%2 == 1 {
				color = entity.White
			}
		}

		if move.IsPass() {
			lines = append(lines, fmt.Sprintf("%s %s", color, entity.PassExtra))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %d %d", color, move.ToRow, move.ToCol))
	}

	return lines, nil
}
