package domain

import (
	"maps"
	"slices"
	"time"
)

// Keys guaranteed to be present in the transcript of a finished session.
const (
	KeyReward            = "ta_reward"
	KeyRewardDetails     = "ta_reward_details"
	KeyRequestViolations = "request_violations"     // Per-turn violation flag history
	KeyViolationCount    = "Violated Request Count" // Total request violations
	KeyNumericReward     = "numeric_reward"
)

// PlayerRecord describes one seat of a session.
type PlayerRecord struct {
	ID        int    `json:"id"`
	Role      string `json:"role"`
	Responder string `json:"responder"`
}

// TurnRecord is the log entry of one environment step.
type TurnRecord struct {
	Round     int            `json:"round"`
	AgentID   int            `json:"agent_id"`
	Context   string         `json:"context"`
	Response  string         `json:"response"`
	Violation bool           `json:"violation"`
	Done      bool           `json:"done"`
	Info      map[string]any `json:"info,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Transcript is the logged key/value stream of a session.
// Scorers and stores consume it; the orchestrator never interprets Keys.
type Transcript struct {
	SessionID  string         `json:"session_id"`
	Game       string         `json:"game"`
	EnvID      string         `json:"env_id"`
	Experiment string         `json:"experiment,omitempty"`
	Seed       int64          `json:"seed"`
	Status     SessionStatus  `json:"status"`
	Players    []PlayerRecord `json:"players"`
	Turns      []TurnRecord   `json:"turns"`
	Events     []Event        `json:"events,omitempty"` // Events authored by the game master
	Keys       map[string]any `json:"keys"`
	StartedAt  time.Time      `json:"start_timestamp"`
	EndedAt    time.Time      `json:"end_timestamp,omitzero"`
}

// NewTranscript creates an empty transcript for a session.
func NewTranscript(sessionID, game string) *Transcript {
	return &Transcript{
		SessionID: sessionID,
		Game:      game,
		Status:    StatusNotStarted,
		Keys:      make(map[string]any),
	}
}

// LogKey records a key/value pair, replacing any previous value.
func (t *Transcript) LogKey(key string, value any) {
	if t.Keys == nil {
		t.Keys = make(map[string]any)
	}
	t.Keys[key] = value
}

// Key returns a logged value.
func (t *Transcript) Key(key string) (any, bool) {
	v, ok := t.Keys[key]
	return v, ok
}

// ViolationHistory returns the per-turn violation flags.
func (t *Transcript) ViolationHistory() []bool {
	out := make([]bool, len(t.Turns))
	for i, turn := range t.Turns {
		out[i] = turn.Violation
	}
	return out
}

// Clone returns a copy that shares no slices or top-level maps with t.
func (t *Transcript) Clone() *Transcript {
	c := *t
	c.Players = slices.Clone(t.Players)
	if t.Turns != nil {
		c.Turns = make([]TurnRecord, len(t.Turns))
		for i, turn := range t.Turns {
			turn.Info = maps.Clone(turn.Info)
			c.Turns[i] = turn
		}
	}
	c.Events = slices.Clone(t.Events)
	c.Keys = maps.Clone(t.Keys)
	return &c
}
