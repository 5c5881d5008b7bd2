package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/ports"
)

// GuardedEnv enforces the call sequence of a ports.Environment:
// Reset once, Step until done, Close once.
// Out-of-sequence calls fail with domain.ErrProtocolViolation and never reach
// the wrapped environment.
type GuardedEnv struct {
	env    ports.Environment
	reset  bool
	done   bool
	closed bool
}

// Guard wraps env.
func Guard(env ports.Environment) *GuardedEnv {
	return &GuardedEnv{env: env}
}

// Unwrap returns the wrapped environment.
func (g *GuardedEnv) Unwrap() ports.Environment {
	return g.env
}

func (g *GuardedEnv) Reset(ctx context.Context, numAgents int, seed int64) error {
	if g.reset {
		return fmt.Errorf("%w: reset called twice", domain.ErrProtocolViolation)
	}
	if err := g.env.Reset(ctx, numAgents, seed); err != nil {
		return fmt.Errorf("failed to reset environment: %w", err)
	}
	g.reset = true
	return nil
}

func (g *GuardedEnv) CurrentAgentID() int {
	return g.env.CurrentAgentID()
}

func (g *GuardedEnv) Observe(since int) []domain.Event {
	return g.env.Observe(since)
}

func (g *GuardedEnv) RoleNames() map[int]string {
	return g.env.RoleNames()
}

func (g *GuardedEnv) Step(ctx context.Context, action string) (bool, map[string]any, error) {
	switch {
	case !g.reset:
		return false, nil, fmt.Errorf("%w: step called before reset", domain.ErrProtocolViolation)
	case g.done:
		return true, nil, fmt.Errorf("%w: step called after done", domain.ErrProtocolViolation)
	}

	done, info, err := g.env.Step(ctx, action)
	if err != nil {
		return false, nil, fmt.Errorf("environment step failed: %w", err)
	}
	g.done = done
	return done, info, nil
}

func (g *GuardedEnv) Close(ctx context.Context) (domain.RewardStructure, error) {
	switch {
	case g.closed:
		return domain.RewardStructure{}, fmt.Errorf("%w: close called twice", domain.ErrProtocolViolation)
	case !g.done:
		return domain.RewardStructure{}, fmt.Errorf("%w: close called before done", domain.ErrProtocolViolation)
	}

	g.closed = true
	rewards, err := g.env.Close(ctx)
	if err != nil {
		return domain.RewardStructure{}, fmt.Errorf("failed to close environment: %w", err)
	}
	return rewards, nil
}

// Done reports whether the environment signalled the end of the episode.
func (g *GuardedEnv) Done() bool { return g.done }

// Closed reports whether Close has been called.
func (g *GuardedEnv) Closed() bool { return g.closed }
