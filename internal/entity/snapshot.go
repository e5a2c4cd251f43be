package entity

import "time"

// Phase - the lifecycle stage of a session.
type Phase string

const (
	PhaseWaiting  Phase = "WAITING"
	PhaseRunning  Phase = "RUNNING"
	PhaseScoring  Phase = "SCORING"
	PhaseFinished Phase = "FINISHED"
)

// Snapshot - the persisted view of a session after a batch of events.
type Snapshot struct {
	SessionID     string    `json:"session_id"`
	Phase         Phase     `json:"phase"`
	Turn          Stone     `json:"turn"`
	Board         string    `json:"board"`
	CapturesBlack int       `json:"captures_black"`
	CapturesWhite int       `json:"captures_white"`
	Players       []*Player `json:"players,omitempty"`
	Winner        Stone     `json:"winner"`
	BlackScore    int       `json:"black_score,omitempty"`
	WhiteScore    int       `json:"white_score,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (that *Snapshot) IsFinished() bool {
	return that.Phase == PhaseFinished
}
