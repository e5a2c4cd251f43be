package entity

import (
	"encoding/json"
	"time"
)

// Game results stored by the archive.
const (
	ResultBlackWin       = "BLACK_WIN"
	ResultWhiteWin       = "WHITE_WIN"
	ResultDraw           = "DRAW"
	ResultBlackWinResign = "BLACK_WIN_RESIGN"
	ResultWhiteWinResign = "WHITE_WIN_RESIGN"
)

// PassExtra marks an archived move that placed no stone when no details were recorded.
const PassExtra = "PASS"

// MoveExtra - the details stored as JSON in ArchivedMove.Extra.
type MoveExtra struct {
	Player   string `json:"player"`
	Color    Stone  `json:"color"`
	Captures int    `json:"captures"`
	Pass     bool   `json:"pass,omitempty"`
}

type ArchivedGame struct {
	ID         int64      `json:"id"`
	Black      string     `json:"black"`
	White      string     `json:"white"`
	Result     string     `json:"result,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

func (that *ArchivedGame) IsFinished() bool {
	return that.FinishedAt != nil
}

// ArchivedMove - one recorded move. Row is the board y, column the board x.
type ArchivedMove struct {
	ID         int64     `json:"id"`
	GameID     int64     `json:"gameId"`
	MoveNumber int       `json:"moveNumber"`
	FromRow    int       `json:"fromRow"`
	FromCol    int       `json:"fromCol"`
	ToRow      int       `json:"toRow"`
	ToCol      int       `json:"toCol"`
	Capture    bool      `json:"capture"`
	Extra      string    `json:"extra,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (that *ArchivedMove) IsPass() bool {
	if that.Extra == PassExtra {
		return true
	}

	details, ok := that.Details()
	return ok && details.Pass
}

// Details decodes Extra. ok is false when Extra holds no MoveExtra JSON.
func (that *ArchivedMove) Details() (MoveExtra, bool) {
	var details MoveExtra
	if that.Extra == "" || json.Unmarshal([]byte(that.Extra), &details) != nil {
		return MoveExtra{}, false
	}

	return details, true
}

// Color is the recorded mover, Empty when unknown.
func (that *ArchivedMove) Color() Stone {
	details, _ := that.Details()
	return details.Color
}

// ResultFor names the archive result of a finished game.
func ResultFor(winner Stone, resigned bool) string {
	switch {
	case winner == Black && resigned:
		return ResultBlackWinResign
	case winner == White && resigned:
		return ResultWhiteWinResign
	case winner == Black:
		return ResultBlackWin
	case winner == White:
		return ResultWhiteWin
	default:
		return ResultDraw
	}
}
