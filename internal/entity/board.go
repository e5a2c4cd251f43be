package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/goban-server/internal/apperror"
)

const DefaultBoardSize = 19

var ErrMalformedBoard = errors.New("malformed board text")

// Board - a square grid of stones plus the dead-stone overlay used while scoring.
type Board struct {
	size  int
	cells []Stone
	dead  []bool
}

func NewBoard(size int) *Board {
	return &Board{
		size:  size,
		cells: make([]Stone, size*size),
		dead:  make([]bool, size*size),
	}
}

func (that *Board) Size() int {
	return that.size
}

func (that *Board) IsOnBoard(x, y int) bool {
	return x >= 0 && y >= 0 && x < that.size && y < that.size
}

// Get returns Empty for positions off the board.
func (that *Board) Get(x, y int) Stone {
	if !that.IsOnBoard(x, y) {
		return Empty
	}

	return that.cells[that.index(x, y)]
}

// Set is a no-op off the board. Clearing a cell also clears its dead mark.
func (that *Board) Set(x, y int, stone Stone) {
	if !that.IsOnBoard(x, y) {
		return
	}

	i := that.index(x, y)
	that.cells[i] = stone
	if stone == Empty {
		that.dead[i] = false
	}
}

// Neighbours returns the on-board orthogonal neighbours in the order left, right, up, down.
func (that *Board) Neighbours(x, y int) []Position {
	candidates := [4]Position{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}}

	neighbours := make([]Position, 0, len(candidates))
	for _, p := range candidates {
		if that.IsOnBoard(p.X, p.Y) {
			neighbours = append(neighbours, p)
		}
	}

	return neighbours
}

func (that *Board) Clone() *Board {
	clone := &Board{
		size:  that.size,
		cells: make([]Stone, len(that.cells)),
		dead:  make([]bool, len(that.dead)),
	}
	copy(clone.cells, that.cells)
	copy(clone.dead, that.dead)

	return clone
}

func (that *Board) CountStones(color Stone) int {
	count := 0
	for _, cell := range that.cells {
		if cell == color {
			count++
		}
	}

	return count
}

// EmptyPositions lists empty intersections in row-major order.
func (that *Board) EmptyPositions() []Position {
	positions := make([]Position, 0, len(that.cells))
	for i, cell := range that.cells {
		if cell == Empty {
			positions = append(positions, that.position(i))
		}
	}

	return positions
}

// String is the canonical text form: one row per line, B, W and . for cells.
// Equal positions always produce equal text, so it doubles as the ko fingerprint.
func (that *Board) String() string {
	var sb strings.Builder
	sb.Grow(that.size * (that.size + 1))

	for y := 0; y < that.size; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < that.size; x++ {
			sb.WriteByte(that.cells[that.index(x, y)].Symbol())
		}
	}

	return sb.String()
}

// ParseBoard rebuilds a board from its canonical text form.
func ParseBoard(text string) (*Board, error) {
	rows := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	size := len(rows)
	if size == 0 || rows[0] == "" {
		return nil, ErrMalformedBoard
	}

	board := NewBoard(size)
	for y, row := range rows {
		row = strings.TrimSuffix(row, "\r")
		if len(row) != size {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedBoard, y, len(row), size)
		}

		for x, symbol := range row {
			stone, ok := stoneFromSymbol(symbol)
			if !ok {
				return nil, fmt.Errorf("%w: unknown symbol %q at (%d,%d)", ErrMalformedBoard, symbol, x, y)
			}
			board.cells[board.index(x, y)] = stone
		}
	}

	return board, nil
}

// MarkGroup sets or clears the dead mark on every stone of the group at (x, y).
func (that *Board) MarkGroup(x, y int, dead bool) (*Group, error) {
	group := NewGroupFinder(that).FindGroup(x, y)
	if group == nil {
		return nil, apperror.ErrNoGroup
	}

	for _, p := range group.Stones {
		that.dead[that.index(p.X, p.Y)] = dead
	}

	return group, nil
}

func (that *Board) IsDead(x, y int) bool {
	if !that.IsOnBoard(x, y) {
		return false
	}

	return that.dead[that.index(x, y)]
}

func (that *Board) ClearDeadMarks() {
	clear(that.dead)
}

// DeadStones lists dead-marked stones in row-major order.
func (that *Board) DeadStones() []Position {
	var positions []Position
	for i, dead := range that.dead {
		if dead && that.cells[i] != Empty {
			positions = append(positions, that.position(i))
		}
	}

	return positions
}

func (that *Board) index(x, y int) int {
	return y*that.size + x
}

func (that *Board) position(i int) Position {
	return Position{X: i % that.size, Y: i / that.size}
}
