package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/goban-server/internal/apperror"
	"github.com/rocketscienceinc/goban-server/internal/entity"
)

// Server line prefixes.
const (
	Welcome    = "WELCOME"
	Assign     = "ASSIGN"
	Error      = "ERROR"
	Start      = "START"
	Info       = "INFO"
	Capture    = "CAPTURE"
	CapturedBy = "CAPTURED BY"
	Board      = "BOARD"
	Scoring    = "SCORING"
	Accepted   = "ACCEPTED"
	Score      = "SCORE"
	Winner     = "WINNER"
	End        = "END"

	currentTurnPrefix = "Current turn: "
	nextTurnPrefix    = "Next turn: "
	noWinner          = "NONE"
)

const ExpectingJoin = "Expecting: JOIN <name>"

func AssignLine(playerID string, color entity.Stone) string {
	return fmt.Sprintf("%s %s %s", Assign, playerID, color)
}

// ErrorLine renders err for the offending client only. Malformed commands keep
// their usage hint, rule violations send the bare reason.
func ErrorLine(err error) string {
	if errors.Is(err, apperror.ErrMalformedCommand) {
		return Error + " " + err.Error()
	}

	return Error + " " + apperror.Message(err)
}

func InfoLine(text string) string {
	return Info + " " + text
}

func JoinedLine(name string, color entity.Stone) string {
	return InfoLine(fmt.Sprintf("Player %s joined as %s", name, color))
}

func CurrentTurnLine(color entity.Stone) string {
	return InfoLine(currentTurnPrefix + color.String())
}

func NextTurnLine(color entity.Stone) string {
	return InfoLine(nextTurnPrefix + color.String())
}

func MoveLine(playerID string, x, y int) string {
	return fmt.Sprintf("%s %s %d %d", VerbMove, playerID, x, y)
}

func CaptureLine(n int) string {
	return Capture + " " + strconv.Itoa(n)
}

func CapturedByLine(color entity.Stone, total int) string {
	return fmt.Sprintf("%s %s %d", CapturedBy, color, total)
}

// BoardLine is a multi-line message: the BOARD header followed by one line per row.
func BoardLine(board string) string {
	return Board + "\n" + board
}

func PassLine(playerID string) string {
	return VerbPass + " " + playerID
}

func MarkLine(x, y int, dead bool) string {
	state := markAlive
	if dead {
		state = markDead
	}

	return fmt.Sprintf("%s %d %d %s", VerbMark, x, y, state)
}

func AcceptedLine(playerID string) string {
	return Accepted + " " + playerID
}

func ScoreLine(black, white int) string {
	return fmt.Sprintf("%s BLACK %d WHITE %d", Score, black, white)
}

// WinnerLine names Empty as NONE.
func WinnerLine(winner entity.Stone, black, white int) string {
	return fmt.Sprintf("%s %s, %s", Winner, winnerName(winner), ScoreLine(black, white))
}

func ResignationWinnerLine(winner entity.Stone) string {
	return fmt.Sprintf("%s %s, %s RESIGNATION", Winner, winnerName(winner), Score)
}

func ResignLine(playerID string) string {
	return VerbResign + " " + playerID
}

// TurnFromInfo extracts the colour from an INFO Current/Next turn line.
func TurnFromInfo(line string) (entity.Stone, bool) {
	text, ok := strings.CutPrefix(line, Info+" ")
	if !ok {
		return entity.Empty, false
	}

	for _, prefix := range []string{currentTurnPrefix, nextTurnPrefix} {
		if name, found := strings.CutPrefix(text, prefix); found {
			color, err := entity.ParseStone(name)
			if err != nil || color == entity.Empty {
				return entity.Empty, false
			}
			return color, true
		}
	}

	return entity.Empty, false
}

// ParseAssign reads ASSIGN <playerId> <color>.
func ParseAssign(line string) (string, entity.Stone, bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != Assign {
		return "", entity.Empty, false
	}

	color, err := entity.ParseStone(fields[2])
	if err != nil || color == entity.Empty {
		return "", entity.Empty, false
	}

	return fields[1], color, true
}

func winnerName(winner entity.Stone) string {
	if winner == entity.Empty {
		return noWinner
	}

	return winner.String()
}
