package domain

import (
	"encoding/json"
	"maps"
	"slices"
)

// Detail keys environments are expected to report per agent on Close.
const (
	DetailInvalidMove = "invalid_move"
	DetailReason      = "reason"
)

// RewardStructure is the raw output of an environment's Close:
// a numeric reward per agent and a details mapping per agent.
type RewardStructure struct {
	Rewards map[int]float64        `json:"rewards"`
	Details map[int]map[string]any `json:"details"`
}

// AgentOutcome is the normalized end-of-episode record of one agent.
type AgentOutcome struct {
	Reward      float64        `json:"reward"`
	InvalidMove bool           `json:"invalid_move"`
	Reason      string         `json:"reason"`
	Extra       map[string]any `json:"extra,omitempty"`
}

func (a AgentOutcome) clone() AgentOutcome {
	a.Extra = maps.Clone(a.Extra)
	return a
}

// Outcome maps agent ids to their end-of-episode record.
// It is immutable after creation: every accessor returns copies.
type Outcome struct {
	agents map[int]AgentOutcome
}

// NewOutcome builds an Outcome from the given records.
func NewOutcome(agents map[int]AgentOutcome) Outcome {
	o := Outcome{agents: make(map[int]AgentOutcome, len(agents))}
	for id, a := range agents {
		o.agents[id] = a.clone()
	}
	return o
}

// Agent returns the record of a single agent.
func (o Outcome) Agent(id int) (AgentOutcome, bool) {
	a, ok := o.agents[id]
	if !ok {
		return AgentOutcome{}, false
	}
	return a.clone(), true
}

// AgentIDs returns the ids present in the outcome, sorted.
func (o Outcome) AgentIDs() []int {
	return slices.Sorted(maps.Keys(o.agents))
}

// Rewards returns the numeric reward per agent.
func (o Outcome) Rewards() map[int]float64 {
	out := make(map[int]float64, len(o.agents))
	for id, a := range o.agents {
		out[id] = a.Reward
	}
	return out
}

// Len returns the number of agents in the outcome.
func (o Outcome) Len() int {
	return len(o.agents)
}

// MarshalJSON encodes the outcome as an object keyed by agent id.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.agents == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(o.agents)
}

// UnmarshalJSON decodes an object keyed by agent id.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var agents map[int]AgentOutcome
	if err := json.Unmarshal(data, &agents); err != nil {
		return err
	}
	*o = NewOutcome(agents)
	return nil
}

// Metric keys logged for every finished session.
const (
	MetricAborted = "Aborted"
	MetricSuccess = "Success"
	MetricLose    = "Lose"
	BenchScore    = "Main Score"
)

// Metrics is the classification of a finished session.
type Metrics struct {
	Aborted int `json:"aborted"`
	Success int `json:"success"`
	Lose    int `json:"lose"`
}

// Keys returns the metrics under their logged key names.
func (m Metrics) Keys() map[string]any {
	return map[string]any{
		MetricAborted: m.Aborted,
		MetricSuccess: m.Success,
		MetricLose:    m.Lose,
	}
}
