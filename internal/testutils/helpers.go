package testutils

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aretw0/turnstile/pkg/domain"
	"github.com/stretchr/testify/require"
)

// SetupTempDir returns an absolute temporary directory removed at test cleanup.
func SetupTempDir(t *testing.T) string {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")
	return absPath
}

// ScriptedEnv is a deterministic ports.Environment for tests.
//
// By default every action is accepted: it is narrated to the next agent and the
// turn rotates. Actions listed in InvalidActions are rejected with the invalid
// move marker and the current agent is kept. The game ends after MaxSteps
// accepted actions, or when an agent exceeds ErrorAllowance invalid moves.
// StepFunc replaces the default behavior entirely.
type ScriptedEnv struct {
	MaxSteps       int
	ErrorAllowance int
	InvalidActions map[string]bool
	Roles          map[int]string
	Intro          string
	StepFunc       func(e *ScriptedEnv, action string) (bool, map[string]any)

	Log      *domain.EventLog
	Current  int
	Agents   int
	Seed     int64
	Accepted int
	Invalid  map[int]int
	Rewards  domain.RewardStructure

	ResetCalls int
	StepCalls  int
	CloseCalls int
	Actions    []string
}

// NewScriptedEnv creates an env ending after maxSteps accepted actions.
func NewScriptedEnv(maxSteps int, invalid ...string) *ScriptedEnv {
	e := &ScriptedEnv{
		MaxSteps:       maxSteps,
		InvalidActions: make(map[string]bool),
		Intro:          "Your turn",
		Log:            domain.NewEventLog(),
	}
	for _, a := range invalid {
		e.InvalidActions[a] = true
	}
	return e
}

func (e *ScriptedEnv) Reset(ctx context.Context, numAgents int, seed int64) error {
	e.ResetCalls++
	e.Agents = numAgents
	e.Seed = seed
	e.Current = 0
	e.Accepted = 0
	e.Invalid = make(map[int]int)
	e.Log = domain.NewEventLog()
	if e.Intro != "" {
		e.Narrate(0, e.Intro)
	}
	return nil
}

func (e *ScriptedEnv) CurrentAgentID() int { return e.Current }

func (e *ScriptedEnv) Observe(since int) []domain.Event { return e.Log.Since(since) }

func (e *ScriptedEnv) RoleNames() map[int]string {
	roles := map[int]string{domain.GameID: "GAME"}
	for id, name := range e.Roles {
		roles[id] = name
	}
	return roles
}

func (e *ScriptedEnv) Step(ctx context.Context, action string) (bool, map[string]any, error) {
	e.StepCalls++
	e.Actions = append(e.Actions, action)
	e.Log.Append(e.Current, domain.Broadcast, domain.KindAgentAction, action)

	if e.StepFunc != nil {
		done, info := e.StepFunc(e, action)
		return done, info, nil
	}

	if e.InvalidActions[action] {
		e.Invalid[e.Current]++
		e.MarkInvalid(e.Current, "scripted rejection")
		if e.Invalid[e.Current] > e.ErrorAllowance {
			e.Finish(e.Current, true, fmt.Sprintf("Player %d made an invalid move.", e.Current))
			return true, nil, nil
		}
		return false, nil, nil
	}

	e.Accepted++
	player := e.Current
	e.Current = (e.Current + 1) % e.Agents
	if e.Accepted >= e.MaxSteps {
		e.Finish(-1, false, "Turn limit reached.")
		return true, map[string]any{"accepted": e.Accepted}, nil
	}
	e.Narrate(e.Current, fmt.Sprintf("Player %d played %s", player, action))
	return false, nil, nil
}

func (e *ScriptedEnv) Close(ctx context.Context) (domain.RewardStructure, error) {
	e.CloseCalls++
	return e.Rewards, nil
}

// Narrate appends a game message addressed to a single agent.
func (e *ScriptedEnv) Narrate(to int, msg string) {
	e.Log.Append(domain.GameID, to, domain.KindNarration, msg)
}

// MarkInvalid appends the invalid move marker addressed to the offending agent.
func (e *ScriptedEnv) MarkInvalid(player int, reason string) {
	e.Log.Append(domain.GameID, player, domain.KindSystem,
		fmt.Sprintf("Player %d %s. Reason: %s", player, domain.InvalidMoveMarker, reason))
}

// Finish fills Rewards. A loser of -1 means a draw.
func (e *ScriptedEnv) Finish(loser int, invalid bool, reason string) {
	e.Rewards = domain.RewardStructure{
		Rewards: make(map[int]float64),
		Details: make(map[int]map[string]any),
	}
	for id := 0; id < e.Agents; id++ {
		reward := 0.0
		if loser >= 0 {
			reward = 1
			if id == loser {
				reward = -1
			}
		}
		e.Rewards.Rewards[id] = reward
		e.Rewards.Details[id] = map[string]any{
			domain.DetailInvalidMove: invalid && id == loser,
			domain.DetailReason:      reason,
		}
	}
}
