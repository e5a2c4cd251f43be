package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/goban-server/internal/apperror"
	"github.com/rocketscienceinc/goban-server/internal/entity"
	"github.com/rocketscienceinc/goban-server/internal/rules"
)

const maxPlayers = 2

type Option func(*GameSession)

func WithBoardSize(size int) Option {
	return func(s *GameSession) {
		if size > 0 {
			s.board = entity.NewBoard(size)
		}
	}
}

func WithKoHistory(capacity int) Option {
	return func(s *GameSession) {
		s.engine = rules.NewEngine(rules.WithKoHistory(capacity))
	}
}

func WithID(id string) Option {
	return func(s *GameSession) {
		if id != "" {
			s.id = id
		}
	}
}

// GameSession sequences one game from the first join to the final score.
// It is not safe for concurrent use; callers serialise every operation.
type GameSession struct {
	id      string
	board   *entity.Board
	engine  *rules.Engine
	scorer  *rules.TerritoryScorer
	factory *entity.PlayerFactory

	players  map[entity.Stone]*entity.Player
	phase    entity.Phase
	turn     entity.Stone
	captures map[entity.Stone]int
	passes   int
	accepted map[entity.Stone]bool

	winner entity.Stone
	score  rules.Score

	events []Event
}

func New(opts ...Option) *GameSession {
	s := &GameSession{
		id:       uuid.NewString(),
		board:    entity.NewBoard(entity.DefaultBoardSize),
		engine:   rules.NewEngine(),
		scorer:   rules.NewTerritoryScorer(),
		factory:  entity.NewPlayerFactory(),
		players:  make(map[entity.Stone]*entity.Player, maxPlayers),
		phase:    entity.PhaseWaiting,
		captures: make(map[entity.Stone]int, maxPlayers),
		accepted: make(map[entity.Stone]bool, maxPlayers),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Join seats a new player. The second join starts the game with Black to move.
func (that *GameSession) Join(name string) (*entity.Player, error) {
	if that.phase == entity.PhaseFinished {
		return nil, apperror.ErrGameFinished
	}

	if that.phase != entity.PhaseWaiting || len(that.players) >= maxPlayers {
		return nil, apperror.ErrSessionFull
	}

	player := that.factory.Create(name)
	that.players[player.Color] = player
	that.emit(Event{Kind: EventPlayerJoined, Player: *player})

	if len(that.players) == maxPlayers {
		that.phase = entity.PhaseRunning
		that.turn = entity.Black
		that.emit(Event{Kind: EventGameStarted, Board: that.board.String(), Turn: that.turn})
	}

	return player, nil
}

// ApplyMove plays a stone for playerID at (x, y). Rejected moves change nothing.
func (that *GameSession) ApplyMove(playerID string, x, y int) (rules.MoveResult, error) {
	player, err := that.playerToMove(playerID)
	if err != nil {
		return rules.MoveResult{}, err
	}

	result, err := that.engine.ApplyMove(that.board, x, y, player.Color)
	if err != nil {
		return rules.MoveResult{}, fmt.Errorf("move %d %d: %w", x, y, err)
	}

	that.board = result.Board
	n := len(result.Captures)
	player.AddPrisoners(n)
	that.captures[player.Color] += n
	that.passes = 0
	that.turn = player.Color.Opponent()

	that.emit(Event{
		Kind:         EventMoveApplied,
		Player:       *player,
		X:            x,
		Y:            y,
		Captures:     result.Captures,
		CaptureTotal: that.captures[player.Color],
		Board:        that.board.String(),
		Turn:         that.turn,
	})

	return result, nil
}

// Pass ends the turn without a stone. Two passes in a row open the scoring phase.
func (that *GameSession) Pass(playerID string) error {
	player, err := that.playerToMove(playerID)
	if err != nil {
		return err
	}

	that.passes++
	that.turn = player.Color.Opponent()

	if that.passes < maxPlayers {
		that.emit(Event{Kind: EventPassed, Player: *player, Turn: that.turn})
		return nil
	}

	that.passes = 0
	that.phase = entity.PhaseScoring
	clear(that.accepted)
	that.emit(Event{Kind: EventPassed, Player: *player})
	that.emit(Event{Kind: EventScoringStarted, Board: that.board.String()})

	return nil
}

// Resign ends the game in favour of the opponent. Allowed while running or scoring.
func (that *GameSession) Resign(playerID string) error {
	if err := that.checkPhase(entity.PhaseRunning, entity.PhaseScoring); err != nil {
		return err
	}

	player, err := that.seated(playerID)
	if err != nil {
		return err
	}

	that.winner = player.Color.Opponent()
	that.phase = entity.PhaseFinished
	that.emit(Event{Kind: EventResigned, Player: *player, Winner: that.winner})
	that.emit(Event{
		Kind:     EventGameFinished,
		Board:    that.board.String(),
		Winner:   that.winner,
		Resigned: true,
	})

	return nil
}

// MarkGroup flags the group at (x, y) dead or alive. Any mark withdraws earlier acceptances.
func (that *GameSession) MarkGroup(playerID string, x, y int, dead bool) error {
	if err := that.checkPhase(entity.PhaseScoring); err != nil {
		return err
	}

	player, err := that.seated(playerID)
	if err != nil {
		return err
	}

	if !that.board.IsOnBoard(x, y) {
		return apperror.ErrOffBoard
	}

	if _, err = that.board.MarkGroup(x, y, dead); err != nil {
		return fmt.Errorf("mark %d %d: %w", x, y, err)
	}

	clear(that.accepted)
	that.emit(Event{Kind: EventGroupMarked, Player: *player, X: x, Y: y, Dead: dead})

	return nil
}

// Accept agrees to the current dead-stone marking. Once both players accept,
// dead stones become prisoners of their opponent and the board is scored.
func (that *GameSession) Accept(playerID string) error {
	if err := that.checkPhase(entity.PhaseScoring); err != nil {
		return err
	}

	player, err := that.seated(playerID)
	if err != nil {
		return err
	}

	if that.accepted[player.Color] {
		return nil
	}

	that.accepted[player.Color] = true
	that.emit(Event{Kind: EventAccepted, Player: *player})

	if len(that.accepted) == maxPlayers {
		that.finishByScore()
	}

	return nil
}

// Resume abandons scoring and returns to play with the other player to move.
func (that *GameSession) Resume(playerID string) error {
	if err := that.checkPhase(entity.PhaseScoring); err != nil {
		return err
	}

	player, err := that.seated(playerID)
	if err != nil {
		return err
	}

	that.board.ClearDeadMarks()
	clear(that.accepted)
	that.passes = 0
	that.phase = entity.PhaseRunning
	that.turn = player.Color.Opponent()
	that.emit(Event{Kind: EventResumed, Player: *player, Turn: that.turn})

	return nil
}

// DrainEvents returns the events emitted since the last drain, oldest first.
func (that *GameSession) DrainEvents() []Event {
	events := that.events
	that.events = nil

	return events
}

func (that *GameSession) ID() string {
	return that.id
}

func (that *GameSession) Phase() entity.Phase {
	return that.phase
}

func (that *GameSession) CurrentTurn() entity.Stone {
	return that.turn
}

// Board returns a copy of the current position.
func (that *GameSession) Board() *entity.Board {
	return that.board.Clone()
}

func (that *GameSession) Captures(color entity.Stone) int {
	return that.captures[color]
}

func (that *GameSession) Winner() entity.Stone {
	return that.winner
}

func (that *GameSession) FinalScore() rules.Score {
	return that.score
}

// Player returns a copy of the seated player with the given id.
func (that *GameSession) Player(id string) (entity.Player, bool) {
	for _, player := range that.players {
		if player.ID == id {
			return *player, true
		}
	}

	return entity.Player{}, false
}

func (that *GameSession) PlayerByColor(color entity.Stone) (entity.Player, bool) {
	player, ok := that.players[color]
	if !ok {
		return entity.Player{}, false
	}

	return *player, true
}

func (that *GameSession) Snapshot() entity.Snapshot {
	snapshot := entity.Snapshot{
		SessionID:     that.id,
		Phase:         that.phase,
		Turn:          that.turn,
		Board:         that.board.String(),
		CapturesBlack: that.captures[entity.Black],
		CapturesWhite: that.captures[entity.White],
		Winner:        that.winner,
		BlackScore:    that.score.BlackScore,
		WhiteScore:    that.score.WhiteScore,
		UpdatedAt:     time.Now().UTC(),
	}

	for _, color := range []entity.Stone{entity.Black, entity.White} {
		if player, ok := that.players[color]; ok {
			copied := *player
			snapshot.Players = append(snapshot.Players, &copied)
		}
	}

	return snapshot
}

func (that *GameSession) finishByScore() {
	for _, p := range that.board.DeadStones() {
		color := that.board.Get(p.X, p.Y)
		opponent := color.Opponent()

		that.captures[opponent]++
		if player, ok := that.players[opponent]; ok {
			player.AddPrisoners(1)
		}
		that.board.Set(p.X, p.Y, entity.Empty)
	}

	that.score = that.scorer.Score(that.board)
	that.winner = that.score.Winner()
	that.phase = entity.PhaseFinished

	that.emit(Event{
		Kind:   EventGameFinished,
		Board:  that.board.String(),
		Score:  that.score,
		Winner: that.winner,
	})
}

// playerToMove resolves the mover for turn-taking operations.
func (that *GameSession) playerToMove(playerID string) (*entity.Player, error) {
	if err := that.checkPhase(entity.PhaseRunning); err != nil {
		return nil, err
	}

	player, err := that.seated(playerID)
	if err != nil {
		return nil, err
	}

	if player.Color != that.turn {
		return nil, apperror.ErrNotYourTurn
	}

	return player, nil
}

func (that *GameSession) checkPhase(allowed ...entity.Phase) error {
	if that.phase == entity.PhaseFinished {
		return apperror.ErrGameFinished
	}

	for _, phase := range allowed {
		if that.phase == phase {
			return nil
		}
	}

	return apperror.ErrWrongPhase
}

func (that *GameSession) seated(playerID string) (*entity.Player, error) {
	for _, player := range that.players {
		if player.ID == playerID {
			return player, nil
		}
	}

	return nil, apperror.ErrUnknownPlayer
}

func (that *GameSession) emit(event Event) {
	that.events = append(that.events, event)
}
