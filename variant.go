package turnstile

import (
	"context"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/aretw0/turnstile/pkg/outcome"
)

// Variant is a game master strategy: a classifier for the final outcome plus
// optional hooks around the session lifecycle. Hooks may drive the session
// themselves, e.g. OnBeforeGame submitting a scripted opening move via Step.
type Variant struct {
	Name     string
	Classify outcome.Classifier

	// OnBeforeReset runs after the roster is built and before the environment resets.
	OnBeforeReset func(ctx context.Context, s *Session) error
	// OnBeforeGame runs once the environment is reset and the session is in progress.
	OnBeforeGame func(ctx context.Context, s *Session) error
	// OnAfterGame runs after the outcome is extracted and the metrics are logged.
	OnAfterGame func(ctx context.Context, s *Session, o domain.Outcome) error
}

// SinglePlayer masters one-agent games and logs the agent's reward as numeric_reward.
var SinglePlayer = Variant{
	Name:     "single_player",
	Classify: outcome.SinglePlayer,
	OnAfterGame: func(ctx context.Context, s *Session, o domain.Outcome) error {
		if a, ok := o.Agent(0); ok {
			s.LogKey(domain.KeyNumericReward, a.Reward)
		}
		return nil
	},
}

// TwoPlayer masters two-agent games; the last actor loses on an invalid move.
var TwoPlayer = Variant{
	Name:     "two_player",
	Classify: outcome.TwoPlayer,
}
