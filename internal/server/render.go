package server

import (
	"github.com/rocketscienceinc/goban-server/internal/entity"
	"github.com/rocketscienceinc/goban-server/internal/protocol"
	"github.com/rocketscienceinc/goban-server/internal/session"
)

// renderEvent turns one session event into the broadcast lines clients see.
func renderEvent(event session.Event) []string {
	switch event.Kind {
	case session.EventPlayerJoined:
		return []string{protocol.JoinedLine(event.Player.Name, event.Player.Color)}

	case session.EventGameStarted:
		return []string{
			protocol.Start,
			protocol.BoardLine(event.Board),
			protocol.CurrentTurnLine(event.Turn),
		}

	case session.EventMoveApplied:
		lines := []string{protocol.MoveLine(event.Player.ID, event.X, event.Y)}
		if n := len(event.Captures); n > 0 {
			lines = append(lines,
				protocol.CaptureLine(n),
				protocol.CapturedByLine(event.Player.Color, event.CaptureTotal),
			)
		}
		return append(lines, protocol.BoardLine(event.Board), protocol.NextTurnLine(event.Turn))

	case session.EventPassed:
		lines := []string{protocol.PassLine(event.Player.ID)}
		if event.Turn != entity.Empty {
			lines = append(lines, protocol.NextTurnLine(event.Turn))
		}
		return lines

	case session.EventScoringStarted:
		return []string{protocol.Scoring}

	case session.EventGroupMarked:
		return []string{protocol.MarkLine(event.X, event.Y, event.Dead)}

	case session.EventAccepted:
		return []string{protocol.AcceptedLine(event.Player.ID)}

	case session.EventResumed:
		return []string{protocol.VerbResume, protocol.NextTurnLine(event.Turn)}

	case session.EventResigned:
		return []string{protocol.ResignLine(event.Player.ID)}

	case session.EventGameFinished:
		if event.Resigned {
			return []string{protocol.ResignationWinnerLine(event.Winner), protocol.End}
		}
		return []string{
			protocol.BoardLine(event.Board),
			protocol.ScoreLine(event.Score.BlackScore, event.Score.WhiteScore),
			protocol.WinnerLine(event.Winner, event.Score.BlackScore, event.Score.WhiteScore),
			protocol.End,
		}

	default:
		return nil
	}
}
