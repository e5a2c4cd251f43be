package apperror

import "errors"

// Kind separates rejected input from operations that are impossible in the current state.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindIllegalState Kind = "illegal_state"
)

// Error - domain error with a stable kind and a client-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (that *Error) Error() string {
	return that.Message
}

// Is matches by kind and message so wrapped copies compare equal to the sentinel.
func (that *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return that.Kind == other.Kind && that.Message == other.Message
}

func newValidation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func newIllegalState(message string) *Error {
	return &Error{Kind: KindIllegalState, Message: message}
}

var (
	ErrOffBoard         = newValidation("off board")
	ErrOccupied         = newValidation("occupied")
	ErrSuicide          = newValidation("suicide")
	ErrKo               = newValidation("ko violation")
	ErrWrongPhase       = newValidation("command not allowed in current phase")
	ErrNotYourTurn      = newValidation("not your turn")
	ErrMalformedCommand = newValidation("malformed command")
	ErrSessionFull      = newValidation("game already has two players")
	ErrGameFinished     = newValidation("game is already finished")
)

var (
	ErrUnknownPlayer = newIllegalState("unknown player")
	ErrNoGroup       = newIllegalState("no group")
	ErrGameNotFound  = newIllegalState("game not found")
)

// IsValidation reports whether err carries a validation error.
func IsValidation(err error) bool {
	return kindOf(err) == KindValidation
}

// IsIllegalState reports whether err carries an illegal-state error.
func IsIllegalState(err error) bool {
	return kindOf(err) == KindIllegalState
}

// Message returns the client-facing text of the innermost domain error, or err.Error().
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	return err.Error()
}

func kindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}

	return ""
}
