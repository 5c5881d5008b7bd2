package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSetup is returned when the environment or the agent roster is misconfigured
	// before the environment is reset.
	ErrSetup = errors.New("session setup failed")

	// ErrProtocolViolation is returned when the environment contract is called out of
	// sequence (step before reset, step after done, close twice...).
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrInvalidMove marks an action rejected by the environment's rules.
	// It is recorded as data and never aborts a session.
	ErrInvalidMove = errors.New("invalid move")

	// ErrAgentInvocation is returned when an agent fails to produce a response.
	ErrAgentInvocation = errors.New("agent invocation failed")

	// ErrUnknownEnvironment is returned when a registry has no factory for an environment id.
	ErrUnknownEnvironment = errors.New("unknown environment")
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// SessionError identifies the session and game a fatal error belongs to.
type SessionError struct {
	Kind      error // One of the sentinel errors above
	SessionID string
	Game      string
	Err       error // Underlying cause, may be nil
}

// NewSessionError wraps cause with the session identity.
func NewSessionError(kind error, sessionID, game string, cause error) *SessionError {
	return &SessionError{Kind: kind, SessionID: sessionID, Game: game, Err: cause}
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	msg := fmt.Sprintf("session %s (game %s): %v", e.SessionID, e.Game, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *SessionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Is reports whether target is a SessionError of the same kind.
func (e *SessionError) Is(target error) bool {
	if t, ok := target.(*SessionError); ok {
		return e.Kind == t.Kind
	}
	return false
}

// ErrEnvironment is returned when the environment itself fails while stepping or closing.
var ErrEnvironment = errors.New("environment failure")
