package agent

import (
	"context"
	"errors"
	"math/rand"

	"github.com/aretw0/turnstile/pkg/domain"
)

// DefaultCustomResponse is used when a custom player lists no responses.
const DefaultCustomResponse = "No custom response specified."

// Scripted replies with a fixed list of responses, in order, wrapping around.
type Scripted struct {
	responses []string
	next      int
}

// NewScripted creates a scripted responder.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

func (s *Scripted) Name() string { return "scripted" }

func (s *Scripted) Respond(ctx context.Context, history []domain.Message) (string, error) {
	if len(s.responses) == 0 {
		return "", errors.New("scripted responder has no responses")
	}
	resp := s.responses[s.next%len(s.responses)]
	s.next++
	return resp, nil
}

// Custom picks one of its responses at random. The choice sequence is fixed
// by the seed, so repeated sessions with the same seed replay identically.
type Custom struct {
	responses []string
	rng       *rand.Rand
}

// NewCustom creates a custom responder.
func NewCustom(responses []string, seed int64) *Custom {
	if len(responses) == 0 {
		responses = []string{DefaultCustomResponse}
	}
	return &Custom{responses: responses, rng: rand.New(rand.NewSource(seed))}
}

func (c *Custom) Name() string { return "custom" }

func (c *Custom) Respond(ctx context.Context, history []domain.Message) (string, error) {
	return c.responses[c.rng.Intn(len(c.responses))], nil
}

// Func adapts a function to the Responder interface.
type Func func(ctx context.Context, history []domain.Message) (string, error)

func (f Func) Name() string { return "func" }

func (f Func) Respond(ctx context.Context, history []domain.Message) (string, error) {
	return f(ctx, history)
}
