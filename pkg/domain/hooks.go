package domain

import (
	"context"
	"time"
)

// TurnEvent describes one environment step.
type TurnEvent struct {
	SessionID string
	Game      string
	AgentID   int
	Round     int
	Violation bool
	Done      bool
	Duration  time.Duration // Time spent in the agent invocation
}

// RoundEvent is emitted when a round completes.
type RoundEvent struct {
	SessionID string
	Game      string
	Round     int // The round counter after advancing
}

// GameEvent is emitted once a session is finished.
type GameEvent struct {
	SessionID  string
	Game       string
	Rounds     int
	Violations int
	Metrics    Metrics
	Outcome    Outcome
}

// LifecycleHooks defines callbacks for session observability.
type LifecycleHooks struct {
	OnTurn          func(context.Context, *TurnEvent)
	OnViolation     func(context.Context, *TurnEvent)
	OnRoundComplete func(context.Context, *RoundEvent)
	OnGameEnd       func(context.Context, *GameEvent)
}
