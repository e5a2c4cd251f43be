package session

import (
	"testing"

	"github.com/rocketscienceinc/goban-server/internal/apperror"
	"github.com/rocketscienceinc/goban-server/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(events []Event) []EventKind {
	result := make([]EventKind, 0, len(events))
	for _, event := range events {
		result = append(result, event.Kind)
	}

	return result
}

// runningSession returns a session where p0 plays black and p1 plays white.
func runningSession(t *testing.T, opts ...Option) *GameSession {
	t.Helper()

	s := New(opts...)
	_, err := s.Join("black")
	require.NoError(t, err)
	_, err = s.Join("white")
	require.NoError(t, err)
	s.DrainEvents()

	return s
}

func scoringSession(t *testing.T, opts ...Option) *GameSession {
	t.Helper()

	s := runningSession(t, opts...)
	require.NoError(t, s.Pass("p0"))
	require.NoError(t, s.Pass("p1"))
	s.DrainEvents()

	return s
}

func TestGameSession_Join(t *testing.T) {
	t.Run("Second join starts the game with black to move", func(t *testing.T) {
		// Given: a new session
		s := New(WithBoardSize(9))
		assert.NotEmpty(t, s.ID())
		assert.Equal(t, entity.PhaseWaiting, s.Phase())

		// When: black joins
		black, err := s.Join("alice")
		require.NoError(t, err)

		// Then: still waiting
		assert.Equal(t, entity.Black, black.Color)
		assert.Equal(t, entity.PhaseWaiting, s.Phase())

		// When: white joins
		white, err := s.Join("bob")
		require.NoError(t, err)

		// Then: the game is running and black moves first
		assert.Equal(t, "p1", white.ID)
		assert.Equal(t, entity.White, white.Color)
		assert.Equal(t, entity.PhaseRunning, s.Phase())
		assert.Equal(t, entity.Black, s.CurrentTurn())

		events := s.DrainEvents()
		assert.Equal(t, []EventKind{EventPlayerJoined, EventPlayerJoined, EventGameStarted}, kinds(events))
		assert.Equal(t, entity.Black, events[2].Turn)
		assert.Empty(t, s.DrainEvents())
	})

	t.Run("Third join is rejected", func(t *testing.T) {
		s := runningSession(t)

		_, err := s.Join("carol")

		assert.ErrorIs(t, err, apperror.ErrSessionFull)
		assert.Empty(t, s.DrainEvents())
	})
}

func TestGameSession_ApplyMove(t *testing.T) {
	t.Run("Move before the game starts", func(t *testing.T) {
		s := New()
		_, err := s.Join("alice")
		require.NoError(t, err)

		_, err = s.ApplyMove("p0", 3, 3)

		assert.ErrorIs(t, err, apperror.ErrWrongPhase)
	})

	t.Run("Legal move flips the turn", func(t *testing.T) {
		s := runningSession(t, WithBoardSize(9))

		_, err := s.ApplyMove("p0", 4, 4)
		require.NoError(t, err)

		assert.Equal(t, entity.White, s.CurrentTurn())
		assert.Equal(t, entity.Black, s.Board().Get(4, 4))

		events := s.DrainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventMoveApplied, events[0].Kind)
		assert.Equal(t, "p0", events[0].Player.ID)
		assert.Equal(t, entity.White, events[0].Turn)
	})

	t.Run("Out of turn move is rejected without effect", func(t *testing.T) {
		s := runningSession(t, WithBoardSize(9))
		before := s.Board().String()

		_, err := s.ApplyMove("p1", 4, 4)

		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, before, s.Board().String())
		assert.Equal(t, entity.Black, s.CurrentTurn())
		assert.Empty(t, s.DrainEvents())
	})

	t.Run("Unknown player", func(t *testing.T) {
		s := runningSession(t)

		_, err := s.ApplyMove("p7", 0, 0)

		assert.ErrorIs(t, err, apperror.ErrUnknownPlayer)
	})

	t.Run("Rule violation keeps the turn", func(t *testing.T) {
		s := runningSession(t, WithBoardSize(9))
		_, err := s.ApplyMove("p0", 0, 0)
		require.NoError(t, err)

		_, err = s.ApplyMove("p1", 0, 0)

		assert.ErrorIs(t, err, apperror.ErrOccupied)
		assert.Equal(t, entity.White, s.CurrentTurn())
	})

	t.Run("Captures are credited to the mover", func(t *testing.T) {
		// Given: white stone at (1,0) about to be surrounded in the corner
		s := runningSession(t, WithBoardSize(5))
		moves := []struct {
			player string
			x, y   int
		}{
			{"p0", 0, 0},
			{"p1", 1, 0},
			{"p0", 2, 0},
			{"p1", 4, 4},
		}
		for _, m := range moves {
			_, err := s.ApplyMove(m.player, m.x, m.y)
			require.NoError(t, err)
		}
		s.DrainEvents()

		// When: black fills the last liberty
		result, err := s.ApplyMove("p0", 1, 1)
		require.NoError(t, err)

		// Then: one prisoner for black
		assert.Equal(t, []entity.Position{{X: 1, Y: 0}}, result.Captures)
		assert.Equal(t, 1, s.Captures(entity.Black))
		black, ok := s.Player("p0")
		require.True(t, ok)
		assert.Equal(t, 1, black.Prisoners)

		events := s.DrainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, 1, events[0].CaptureTotal)
	})
}

func TestGameSession_Pass(t *testing.T) {
	t.Run("Two consecutive passes open scoring", func(t *testing.T) {
		s := runningSession(t)

		require.NoError(t, s.Pass("p0"))
		assert.Equal(t, entity.PhaseRunning, s.Phase())
		assert.Equal(t, entity.White, s.CurrentTurn())

		require.NoError(t, s.Pass("p1"))
		assert.Equal(t, entity.PhaseScoring, s.Phase())

		assert.Equal(t, []EventKind{EventPassed, EventPassed, EventScoringStarted}, kinds(s.DrainEvents()))
	})

	t.Run("A move between passes resets the count", func(t *testing.T) {
		s := runningSession(t, WithBoardSize(9))

		require.NoError(t, s.Pass("p0"))
		_, err := s.ApplyMove("p1", 2, 2)
		require.NoError(t, err)
		require.NoError(t, s.Pass("p0"))

		assert.Equal(t, entity.PhaseRunning, s.Phase())
	})

	t.Run("Pass out of turn", func(t *testing.T) {
		s := runningSession(t)

		assert.ErrorIs(t, s.Pass("p1"), apperror.ErrNotYourTurn)
	})
}

func TestGameSession_Scoring(t *testing.T) {
	t.Run("Moves are not allowed while scoring", func(t *testing.T) {
		s := scoringSession(t)

		_, err := s.ApplyMove("p0", 1, 1)

		assert.ErrorIs(t, err, apperror.ErrWrongPhase)
	})

	t.Run("Mark outside scoring", func(t *testing.T) {
		s := runningSession(t)

		assert.ErrorIs(t, s.MarkGroup("p0", 0, 0, true), apperror.ErrWrongPhase)
		assert.ErrorIs(t, s.Accept("p0"), apperror.ErrWrongPhase)
		assert.ErrorIs(t, s.Resume("p0"), apperror.ErrWrongPhase)
	})

	t.Run("Marking an empty point", func(t *testing.T) {
		s := scoringSession(t)

		assert.ErrorIs(t, s.MarkGroup("p0", 3, 3, true), apperror.ErrNoGroup)
		assert.ErrorIs(t, s.MarkGroup("p0", 30, 3, true), apperror.ErrOffBoard)
	})

	t.Run("Both accept and dead stones become prisoners", func(t *testing.T) {
		// Given: a black wall on column 1 and a lone white stone inside black's area
		s := runningSession(t, WithBoardSize(5))
		moves := []struct {
			player string
			x, y   int
		}{
			{"p0", 1, 0}, {"p1", 0, 4},
			{"p0", 1, 1}, {"p1", 4, 4},
			{"p0", 1, 2}, {"p1", 3, 4},
			{"p0", 1, 3}, {"p1", 4, 3},
			{"p0", 1, 4},
		}
		for _, m := range moves {
			_, err := s.ApplyMove(m.player, m.x, m.y)
			require.NoError(t, err)
		}
		require.NoError(t, s.Pass("p1"))
		require.NoError(t, s.Pass("p0"))
		require.Equal(t, entity.PhaseScoring, s.Phase())
		s.DrainEvents()

		// When: white's corner stone at (0,4) is marked dead and both accept
		require.NoError(t, s.MarkGroup("p0", 0, 4, true))
		require.NoError(t, s.Accept("p0"))
		require.NoError(t, s.Accept("p0"))
		assert.Equal(t, entity.PhaseScoring, s.Phase())
		require.NoError(t, s.Accept("p1"))

		// Then: the stone is removed, credited to black and the game is scored
		assert.Equal(t, entity.PhaseFinished, s.Phase())
		assert.Equal(t, entity.Empty, s.Board().Get(0, 4))
		assert.Equal(t, 1, s.Captures(entity.Black))

		score := s.FinalScore()
		assert.Equal(t, 5, score.BlackStones)
		assert.Equal(t, 5, score.BlackTerritory)
		assert.Equal(t, 3, score.WhiteStones)
		assert.Equal(t, entity.Black, s.Winner())

		events := s.DrainEvents()
		assert.Equal(t, []EventKind{EventGroupMarked, EventAccepted, EventAccepted, EventGameFinished}, kinds(events))
		assert.Equal(t, entity.Black, events[3].Winner)
	})

	t.Run("Marking withdraws earlier acceptances", func(t *testing.T) {
		s := runningSession(t, WithBoardSize(5))
		_, err := s.ApplyMove("p0", 2, 2)
		require.NoError(t, err)
		require.NoError(t, s.Pass("p1"))
		require.NoError(t, s.Pass("p0"))

		require.NoError(t, s.Accept("p1"))
		require.NoError(t, s.MarkGroup("p0", 2, 2, true))
		require.NoError(t, s.Accept("p0"))

		assert.Equal(t, entity.PhaseScoring, s.Phase())
	})

	t.Run("Resume returns to play with the other colour to move", func(t *testing.T) {
		s := runningSession(t, WithBoardSize(5))
		_, err := s.ApplyMove("p0", 2, 2)
		require.NoError(t, err)
		require.NoError(t, s.Pass("p1"))
		require.NoError(t, s.Pass("p0"))
		require.NoError(t, s.MarkGroup("p1", 2, 2, true))
		s.DrainEvents()

		require.NoError(t, s.Resume("p0"))

		assert.Equal(t, entity.PhaseRunning, s.Phase())
		assert.Equal(t, entity.White, s.CurrentTurn())
		assert.False(t, s.Board().IsDead(2, 2))
		assert.Equal(t, []EventKind{EventResumed}, kinds(s.DrainEvents()))

		// Then: a single pass no longer ends play
		require.NoError(t, s.Pass("p1"))
		assert.Equal(t, entity.PhaseRunning, s.Phase())
	})
}

func TestGameSession_Resign(t *testing.T) {
	t.Run("Opponent wins", func(t *testing.T) {
		s := runningSession(t)

		require.NoError(t, s.Resign("p1"))

		assert.Equal(t, entity.PhaseFinished, s.Phase())
		assert.Equal(t, entity.Black, s.Winner())
		events := s.DrainEvents()
		assert.Equal(t, []EventKind{EventResigned, EventGameFinished}, kinds(events))
		assert.True(t, events[1].Resigned)
	})

	t.Run("Resign is allowed while scoring", func(t *testing.T) {
		s := scoringSession(t)

		require.NoError(t, s.Resign("p0"))

		assert.Equal(t, entity.White, s.Winner())
	})

	t.Run("Resign before the game starts", func(t *testing.T) {
		s := New()
		_, err := s.Join("alice")
		require.NoError(t, err)

		assert.ErrorIs(t, s.Resign("p0"), apperror.ErrWrongPhase)
	})

	t.Run("Finished game rejects every mutation", func(t *testing.T) {
		s := runningSession(t)
		require.NoError(t, s.Resign("p0"))
		s.DrainEvents()

		_, err := s.ApplyMove("p1", 0, 0)
		assert.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.ErrorIs(t, s.Pass("p1"), apperror.ErrGameFinished)
		assert.ErrorIs(t, s.Resign("p1"), apperror.ErrGameFinished)
		assert.ErrorIs(t, s.MarkGroup("p1", 0, 0, true), apperror.ErrGameFinished)
		assert.ErrorIs(t, s.Accept("p1"), apperror.ErrGameFinished)
		assert.ErrorIs(t, s.Resume("p1"), apperror.ErrGameFinished)
		_, err = s.Join("carol")
		assert.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Empty(t, s.DrainEvents())
	})
}

func TestGameSession_Snapshot(t *testing.T) {
	s := runningSession(t, WithBoardSize(3), WithID("fixed"))
	_, err := s.ApplyMove("p0", 1, 1)
	require.NoError(t, err)

	snapshot := s.Snapshot()

	assert.Equal(t, "fixed", snapshot.SessionID)
	assert.Equal(t, entity.PhaseRunning, snapshot.Phase)
	assert.Equal(t, entity.White, snapshot.Turn)
	assert.Equal(t, "...\n.B.\n...", snapshot.Board)
	require.Len(t, snapshot.Players, 2)
	assert.Equal(t, "p0", snapshot.Players[0].ID)
}
