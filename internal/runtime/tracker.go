package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/turnstile/pkg/domain"
)

// EventSource is the read side of an environment.
type EventSource interface {
	Observe(since int) []domain.Event
	RoleNames() map[int]string
}

// Tracker keeps one cursor per agent into the shared event log and renders
// the unseen slice as a context block. Each event is delivered at most once.
type Tracker struct {
	src       EventSource
	cursors   map[int]int
	delivered map[int]bool
}

// NewTracker creates a tracker with every cursor at the start of the log.
func NewTracker(src EventSource) *Tracker {
	return &Tracker{
		src:       src,
		cursors:   make(map[int]int),
		delivered: make(map[int]bool),
	}
}

// Cursor returns the log offset up to which the agent has been served.
func (t *Tracker) Cursor(agentID int) int {
	return t.cursors[agentID]
}

// ObservationFor returns the events the agent has not seen yet and advances its cursor.
// The first observation of an agent starts with domain.StandardGamePrompt.
func (t *Tracker) ObservationFor(agentID int) domain.Message {
	events, first := t.next(agentID)

	var sb strings.Builder
	if first {
		sb.WriteString(domain.StandardGamePrompt)
		sb.WriteString("\n\n")
	}

	roles := t.src.RoleNames()
	for _, e := range events {
		fmt.Fprintf(&sb, "[%s] %s\n", roleName(roles, e.SenderID), e.Message)
	}
	return domain.Message{Role: domain.RoleUser, Content: sb.String()}
}

// next advances the cursor of agentID to the log length and returns the
// delivered events: the visible ones, minus the agent's own actions.
func (t *Tracker) next(agentID int) ([]domain.Event, bool) {
	first := !t.delivered[agentID]
	t.delivered[agentID] = true

	window := t.src.Observe(t.cursors[agentID])
	t.cursors[agentID] += len(window)

	var out []domain.Event
	for _, e := range window {
		if !e.VisibleTo(agentID) {
			continue
		}
		if e.Kind == domain.KindAgentAction && e.SenderID == agentID {
			continue
		}
		out = append(out, e)
	}
	return out, first
}

func roleName(roles map[int]string, id int) string {
	if name, ok := roles[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Player %d", id)
}
