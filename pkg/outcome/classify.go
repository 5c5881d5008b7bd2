package outcome

import "github.com/aretw0/turnstile/pkg/domain"

// Classifier derives the session metrics from its outcome.
// lastActor is the agent of the final step, or -1 if no step was taken.
type Classifier func(o domain.Outcome, lastActor int) domain.Metrics

// SinglePlayer classifies one-agent sessions: a reward of -1 or an invalid
// final move is an aborted loss, a reward of 1 a success.
func SinglePlayer(o domain.Outcome, lastActor int) domain.Metrics {
	var m domain.Metrics
	a, ok := o.Agent(0)
	if !ok {
		return m
	}
	switch {
	case a.Reward == -1 || a.InvalidMove:
		m.Aborted = 1
		m.Lose = 1
	case a.Reward == 1:
		m.Success = 1
	}
	return m
}

// TwoPlayer classifies competitive sessions: only an invalid final move counts
// against the session, any other ending is a success.
func TwoPlayer(o domain.Outcome, lastActor int) domain.Metrics {
	if a, ok := o.Agent(lastActor); ok && a.InvalidMove {
		return domain.Metrics{Aborted: 1, Lose: 1}
	}
	return domain.Metrics{Success: 1}
}
