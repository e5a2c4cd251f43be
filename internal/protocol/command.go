package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/goban-server/internal/apperror"
)

// MaxLineLength bounds one protocol line, terminator included.
const MaxLineLength = 4096

var ErrLineTooLong = errors.New("line too long")

// Client verbs.
const (
	VerbJoin   = "JOIN"
	VerbMove   = "MOVE"
	VerbPass   = "PASS"
	VerbResign = "RESIGN"
	VerbMark   = "MARK"
	VerbAccept = "ACCEPT"
	VerbResume = "RESUME"
)

const (
	markDead  = "DEAD"
	markAlive = "ALIVE"
)

// Command - one client line split into an upper-cased verb and its arguments.
type Command struct {
	Verb string
	Args []string
}

// ParseCommand splits a line on whitespace. Verbs are case-insensitive.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", apperror.ErrMalformedCommand)
	}

	return Command{
		Verb: strings.ToUpper(fields[0]),
		Args: fields[1:],
	}, nil
}

// ParseJoin returns the player name of a JOIN line. The name may contain spaces.
func ParseJoin(line string) (string, error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		return "", err
	}

	if cmd.Verb != VerbJoin || len(cmd.Args) == 0 {
		return "", fmt.Errorf("%w: expecting JOIN <name>", apperror.ErrMalformedCommand)
	}

	return strings.Join(cmd.Args, " "), nil
}

// ParseMove reads MOVE <x> <y>. Coordinates are not range-checked here.
func ParseMove(line string) (x, y int, err error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		return 0, 0, err
	}

	if cmd.Verb != VerbMove || len(cmd.Args) != 2 {
		return 0, 0, fmt.Errorf("%w: use MOVE <x> <y>", apperror.ErrMalformedCommand)
	}

	return parseCoordinates(cmd.Args[0], cmd.Args[1])
}

// ParseMark reads MARK <x> <y> DEAD|ALIVE.
func ParseMark(line string) (x, y int, dead bool, err error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		return 0, 0, false, err
	}

	if cmd.Verb != VerbMark || len(cmd.Args) != 3 {
		return 0, 0, false, fmt.Errorf("%w: use MARK <x> <y> DEAD|ALIVE", apperror.ErrMalformedCommand)
	}

	x, y, err = parseCoordinates(cmd.Args[0], cmd.Args[1])
	if err != nil {
		return 0, 0, false, err
	}

	switch strings.ToUpper(cmd.Args[2]) {
	case markDead:
		dead = true
	case markAlive:
		dead = false
	default:
		return 0, 0, false, fmt.Errorf("%w: mark must be DEAD or ALIVE", apperror.ErrMalformedCommand)
	}

	return x, y, dead, nil
}

func parseCoordinates(rawX, rawY string) (int, int, error) {
	x, err := strconv.Atoi(rawX)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad x coordinate %q", apperror.ErrMalformedCommand, rawX)
	}

	y, err := strconv.Atoi(rawY)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad y coordinate %q", apperror.ErrMalformedCommand, rawY)
	}

	return x, y, nil
}
