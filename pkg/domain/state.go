package domain

// SessionStatus is the lifecycle position of a session's state machine.
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusInProgress SessionStatus = "in_progress"
	StatusDone       SessionStatus = "done" // Terminal, no transitions out
)
