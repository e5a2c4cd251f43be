package entity

import (
	"fmt"
	"strings"
)

// Stone - the state of a single intersection.
type Stone int

const (
	Empty Stone = iota
	Black
	White
)

const (
	symbolEmpty = '.'
	symbolBlack = 'B'
	symbolWhite = 'W'
)

// Opponent returns the other colour. Empty has no opponent.
func (that Stone) Opponent() Stone {
	switch that {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (that Stone) String() string {
	switch that {
	case Black:
		return "BLACK"
	case White:
		return "WHITE"
	default:
		return "EMPTY"
	}
}

// Symbol is the one-character board text form.
func (that Stone) Symbol() byte {
	switch that {
	case Black:
		return symbolBlack
	case White:
		return symbolWhite
	default:
		return symbolEmpty
	}
}

func (that Stone) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Stone) UnmarshalText(text []byte) error {
	stone, err := ParseStone(string(text))
	if err != nil {
		return err
	}

	*that = stone
	return nil
}

// ParseStone accepts BLACK, WHITE or EMPTY in any case.
func ParseStone(name string) (Stone, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "BLACK":
		return Black, nil
	case "WHITE":
		return White, nil
	case "EMPTY":
		return Empty, nil
	default:
		return Empty, fmt.Errorf("unknown stone %q", name)
	}
}

func stoneFromSymbol(symbol rune) (Stone, bool) {
	switch symbol {
	case symbolBlack:
		return Black, true
	case symbolWhite:
		return White, true
	case symbolEmpty:
		return Empty, true
	default:
		return Empty, false
	}
}

// Position - an intersection on the board.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (that Position) String() string {
	return fmt.Sprintf("(%d,%d)", that.X, that.Y)
}
