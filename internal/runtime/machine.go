package runtime

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/turnstile/pkg/domain"
)

// Observer is the part of an environment the Machine scans for violations.
type Observer interface {
	Observe(since int) []domain.Event
}

// Machine tracks the turn/round state of a session:
// NotStarted -> InProgress -> Done.
//
// A round completes when every agent has acted and the latest step raised no
// request violation. The agent count is the real number of seats; there is no
// pseudo-agent for the game master.
type Machine struct {
	src    Observer
	agents int
	status domain.SessionStatus

	acted      map[int]struct{}
	lastActor  int
	violation  bool // Raised by the most recent step
	violations int
	round      int
	scanned    int // Global log offset already scanned for violations
	history    []bool
}

// NewMachine creates a machine for a session with the given number of agents.
func NewMachine(src Observer, agents int) *Machine {
	return &Machine{
		src:       src,
		agents:    agents,
		status:    domain.StatusNotStarted,
		acted:     make(map[int]struct{}),
		lastActor: -1,
	}
}

// Start moves the machine to InProgress. Events already in the log (the
// initial prompts) are never scanned for violations.
func (m *Machine) Start() error {
	if m.status != domain.StatusNotStarted {
		return fmt.Errorf("%w: machine already started", domain.ErrProtocolViolation)
	}
	if m.agents <= 0 {
		return fmt.Errorf("%w: session needs at least one agent", domain.ErrSetup)
	}
	m.scanned += len(m.src.Observe(m.scanned))
	m.status = domain.StatusInProgress
	return nil
}

// Record registers the step just taken by agentID and reports whether it
// raised a request violation. With done=true the machine becomes terminal;
// the violation of a final move is still counted.
func (m *Machine) Record(agentID int, done bool) (bool, error) {
	switch m.status {
	case domain.StatusNotStarted:
		return false, fmt.Errorf("%w: step recorded before start", domain.ErrProtocolViolation)
	case domain.StatusDone:
		return false, fmt.Errorf("%w: step recorded after done", domain.ErrProtocolViolation)
	}
	if agentID < 0 || agentID >= m.agents {
		return false, fmt.Errorf("%w: agent %d is not seated (agents: %d)", domain.ErrProtocolViolation, agentID, m.agents)
	}

	m.lastActor = agentID
	m.violation = m.scan(agentID)
	if m.violation {
		m.violations++
	}
	m.history = append(m.history, m.violation)

	if done {
		m.status = domain.StatusDone
		return m.violation, nil
	}
	m.acted[agentID] = struct{}{}
	return m.violation, nil
}

// scan looks at the events appended by the latest step that are addressed to
// the actor and authored by the game.
func (m *Machine) scan(agentID int) bool {
	window := m.src.Observe(m.scanned)
	m.scanned += len(window)

	found := false
	for _, e := range window {
		if e.Kind == domain.KindAgentAction || !e.VisibleTo(agentID) {
			continue
		}
		if strings.Contains(e.Message, domain.InvalidMoveMarker) {
			found = true
		}
	}
	return found
}

// RoundComplete reports whether the current round is over. It has no side effects.
func (m *Machine) RoundComplete() bool {
	return m.status == domain.StatusInProgress && len(m.acted) == m.agents && !m.violation
}

// AdvanceRound clears the acted-set and increments the round counter.
func (m *Machine) AdvanceRound() error {
	if !m.RoundComplete() {
		return fmt.Errorf("%w: round %d is not complete", domain.ErrProtocolViolation, m.round)
	}
	clear(m.acted)
	m.round++
	return nil
}

// MarkFinalViolation counts a violation reported by the environment at close
// time for the last actor, unless the final step already raised one.
func (m *Machine) MarkFinalViolation() bool {
	if m.violation || len(m.history) == 0 {
		return false
	}
	m.violation = true
	m.violations++
	m.history[len(m.history)-1] = true
	return true
}

func (m *Machine) Status() domain.SessionStatus { return m.status }

func (m *Machine) Round() int { return m.round }

// Violation reports whether the most recent step raised a request violation.
func (m *Machine) Violation() bool { return m.violation }

// Violations returns the total number of request violations.
func (m *Machine) Violations() int { return m.violations }

// LastActor returns the agent of the most recent step, or -1.
func (m *Machine) LastActor() int { return m.lastActor }

// Acted returns the agents that acted in the current round, sorted.
func (m *Machine) Acted() []int {
	ids := make([]int, 0, len(m.acted))
	for id := range m.acted {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// History returns the per-step violation flags.
func (m *Machine) History() []bool {
	return slices.Clone(m.history)
}
