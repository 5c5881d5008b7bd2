// Package agent defines the players of a session: a stable identity, a role
// name and a pluggable response capability, plus the memory of prior turns.
package agent

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/turnstile/pkg/domain"
)

// Responder produces the next action from the conversation so far.
// The last message of history is the newest context block.
type Responder interface {
	Name() string
	Respond(ctx context.Context, history []domain.Message) (string, error)
}

// Agent is a seat in a session. One type serves every role; behavior comes
// from the Responder.
type Agent struct {
	ID   int
	Role string

	responder Responder
	history   []domain.Message
}

// New creates an agent.
func New(id int, role string, r Responder) *Agent {
	return &Agent{ID: id, Role: role, responder: r}
}

// Invoke hands a context block to the responder and remembers both sides of the turn.
// On failure the context stays in memory so the agent can be inspected.
func (a *Agent) Invoke(ctx context.Context, msg domain.Message) (string, error) {
	a.history = append(a.history, msg)
	resp, err := a.responder.Respond(ctx, slices.Clone(a.history))
	if err != nil {
		return "", fmt.Errorf("agent %d (%s, %s): %w", a.ID, a.Role, a.responder.Name(), err)
	}
	a.history = append(a.history, domain.Message{Role: domain.RoleAssistant, Content: resp})
	return resp, nil
}

// Perceive records a turn that was played on the agent's behalf.
func (a *Agent) Perceive(msg domain.Message, response string) {
	a.history = append(a.history, msg, domain.Message{Role: domain.RoleAssistant, Content: response})
}

// History returns the agent's memory of prior turns.
func (a *Agent) History() []domain.Message {
	return slices.Clone(a.history)
}

// ResponderName names the capability behind the agent.
func (a *Agent) ResponderName() string {
	return a.responder.Name()
}
