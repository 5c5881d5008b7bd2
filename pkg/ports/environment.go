package ports

import (
	"context"

	"github.com/aretw0/turnstile/pkg/domain"
)

// Environment is a turn-based multiplayer game consumed by the game master.
// Legality rules stay hidden behind it: rejected actions surface only as event
// text containing domain.InvalidMoveMarker.
type Environment interface {
	// Reset prepares a new episode. It must be called exactly once before Step.
	Reset(ctx context.Context, numAgents int, seed int64) error

	// CurrentAgentID returns the agent expected to act next.
	CurrentAgentID() int

	// Observe returns the events appended at or after the global log offset since.
	Observe(since int) []domain.Event

	// RoleNames maps sender ids to display names. Missing ids render as "Player <id>".
	RoleNames() map[int]string

	// Step applies the current agent's action. It is the only mutator of the
	// event log and of the current agent.
	Step(ctx context.Context, action string) (done bool, info map[string]any, err error)

	// Close ends the episode and returns the rewards per agent.
	Close(ctx context.Context) (domain.RewardStructure, error)
}
