package rules

import (
	"github.com/rocketscienceinc/goban-server/internal/apperror"
	"github.com/rocketscienceinc/goban-server/internal/entity"
)

// MoveResult - outcome of a legal placement. Board is the new position, never the input board.
type MoveResult struct {
	Captures []entity.Position
	Board    *entity.Board
}

type Option func(*Engine)

func WithKoHistory(capacity int) Option {
	return func(e *Engine) {
		e.ko = NewKoDetector(capacity)
	}
}

// Engine validates and resolves stone placements. The ko history is its only state,
// so every session gets its own engine.
type Engine struct {
	ko *KoDetector
}

func NewEngine(opts ...Option) *Engine {
	engine := &Engine{ko: NewKoDetector(DefaultKoHistory)}
	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// ApplyMove places a stone of color at (x, y) on a clone of board.
// The input board is never modified; on success the pre-move position joins the ko history.
func (that *Engine) ApplyMove(board *entity.Board, x, y int, color entity.Stone) (MoveResult, error) {
	if err := validateMove(board, x, y); err != nil {
		return MoveResult{}, err
	}

	next := board.Clone()
	next.Set(x, y, color)

	captures := captureAround(next, x, y, color.Opponent())

	own := entity.NewGroupFinder(next).FindGroup(x, y)
	if own.LibertyCount() == 0 && len(captures) == 0 {
		return MoveResult{}, apperror.ErrSuicide
	}

	if that.ko.IsKo(next.String()) {
		return MoveResult{}, apperror.ErrKo
	}

	that.ko.Push(board.String())

	return MoveResult{Captures: captures, Board: next}, nil
}

// Ko exposes the history for inspection.
func (that *Engine) Ko() *KoDetector {
	return that.ko
}

// validateMove - checks bounds and occupancy.
func validateMove(board *entity.Board, x, y int) error {
	if !board.IsOnBoard(x, y) {
		return apperror.ErrOffBoard
	}

	if board.Get(x, y) != entity.Empty {
		return apperror.ErrOccupied
	}

	return nil
}

// captureAround removes every opponent group adjacent to (x, y) left without liberties.
// A group touching the new stone on several sides is removed once.
func captureAround(board *entity.Board, x, y int, opponent entity.Stone) []entity.Position {
	var captures []entity.Position

	finder := entity.NewGroupFinder(board)
	for _, n := range board.Neighbours(x, y) {
		if board.Get(n.X, n.Y) != opponent {
			continue
		}

		group := finder.FindGroup(n.X, n.Y)
		if group.LibertyCount() > 0 {
			continue
		}

		for _, p := range group.Stones {
			board.Set(p.X, p.Y, entity.Empty)
		}
		captures = append(captures, group.Stones...)
	}

	return captures
}
