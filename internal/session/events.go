package session

import (
	"github.com/rocketscienceinc/goban-server/internal/entity"
	"github.com/rocketscienceinc/goban-server/internal/rules"
)

type EventKind string

const (
	EventPlayerJoined   EventKind = "player_joined"
	EventGameStarted    EventKind = "game_started"
	EventMoveApplied    EventKind = "move_applied"
	EventPassed         EventKind = "passed"
	EventScoringStarted EventKind = "scoring_started"
	EventGroupMarked    EventKind = "group_marked"
	EventAccepted       EventKind = "accepted"
	EventResumed        EventKind = "resumed"
	EventResigned       EventKind = "resigned"
	EventGameFinished   EventKind = "game_finished"
)

// Event - a state change emitted by a session operation. Only the fields relevant
// to Kind are set. Player is a copy taken when the event was emitted.
type Event struct {
	Kind   EventKind
	Player entity.Player

	X, Y     int
	Dead     bool
	Captures []entity.Position

	// CaptureTotal is the mover's colour total after a move.
	CaptureTotal int

	Board string

	// Turn is the colour to move next, Empty when play does not continue.
	Turn entity.Stone

	Score    rules.Score
	Winner   entity.Stone
	Resigned bool
}

// Update - the events of one operation together with the state they left behind.
type Update struct {
	SessionID string
	Events    []Event
	Snapshot  entity.Snapshot
}
