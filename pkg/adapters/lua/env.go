package lua

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/aretw0/turnstile/pkg/domain"
	glua "github.com/yuin/gopher-lua"
)

// Env is a ports.Environment whose rules are written in Lua.
//
// A game script returns a table with metadata (id, description, players) and
// two functions: reset(num_players) and step(player, action). Scripts talk to
// the environment through the global "game" module (see module.go).
// Each Env owns its own Lua state and is driven by a single goroutine.
type Env struct {
	id      string
	source  string
	options map[string]any

	L    *glua.LState
	game *glua.LTable

	log      *domain.EventLog
	roles    map[int]string
	rng      *rand.Rand
	agents   int
	current  int
	invalid  map[int]int
	rewards  map[int]float64
	finished bool
	reason   string
	offender int // Agent whose invalid move ended the game, or -1
}

// NewEnv creates an environment for a game script.
func NewEnv(id, source string, options map[string]any) *Env {
	return &Env{
		id:       id,
		source:   source,
		options:  options,
		log:      domain.NewEventLog(),
		offender: -1,
	}
}

func (e *Env) Reset(ctx context.Context, numAgents int, seed int64) error {
	if e.L != nil {
		e.L.Close()
	}
	e.L = newState()
	e.L.SetContext(ctx)
	e.registerModule()

	game, err := loadGame(e.L, e.source)
	if err != nil {
		return fmt.Errorf("failed to load game %s: %w", e.id, err)
	}
	e.game = game

	if players := int(glua.LVAsNumber(game.RawGetString("players"))); players > 0 && players != numAgents {
		return fmt.Errorf("%w: game %s needs %d players, got %d", domain.ErrSetup, e.id, players, numAgents)
	}

	e.log = domain.NewEventLog()
	e.roles = map[int]string{domain.GameID: "GAME"}
	e.rng = rand.New(rand.NewSource(seed))
	e.agents = numAgents
	e.current = 0
	e.invalid = make(map[int]int)
	e.rewards = make(map[int]float64)
	e.finished = false
	e.reason = ""
	e.offender = -1

	return e.call("reset", glua.LNumber(numAgents))
}

func (e *Env) CurrentAgentID() int { return e.current }

func (e *Env) Observe(since int) []domain.Event { return e.log.Since(since) }

func (e *Env) RoleNames() map[int]string {
	out := make(map[int]string, len(e.roles))
	for id, name := range e.roles {
		out[id] = name
	}
	return out
}

func (e *Env) Step(ctx context.Context, action string) (bool, map[string]any, error) {
	if e.L == nil {
		return false, nil, fmt.Errorf("game %s: step before reset", e.id)
	}
	if e.finished {
		return true, nil, fmt.Errorf("game %s: step after the game finished", e.id)
	}
	e.L.SetContext(ctx)

	player := e.current
	e.log.Append(player, domain.Broadcast, domain.KindAgentAction, action)
	if err := e.call("step", glua.LNumber(player), glua.LString(action)); err != nil {
		return false, nil, err
	}

	var info map[string]any
	if e.finished {
		info = map[string]any{"reason": e.reason}
	}
	return e.finished, info, nil
}

func (e *Env) Close(ctx context.Context) (domain.RewardStructure, error) {
	if e.L != nil {
		e.L.Close()
		e.L = nil
	}
	rs := domain.RewardStructure{
		Rewards: make(map[int]float64, e.agents),
		Details: make(map[int]map[string]any, e.agents),
	}
	for id := 0; id < e.agents; id++ {
		rs.Rewards[id] = e.rewards[id]
		rs.Details[id] = map[string]any{
			domain.DetailInvalidMove: id == e.offender,
			domain.DetailReason:      e.reason,
		}
	}
	return rs, nil
}

func (e *Env) call(name string, args ...glua.LValue) error {
	fn, ok := e.game.RawGetString(name).(*glua.LFunction)
	if !ok {
		return fmt.Errorf("game %s does not define %s()", e.id, name)
	}
	if err := e.L.CallByParam(glua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		return fmt.Errorf("game %s: %s() failed: %w", e.id, name, err)
	}
	return nil
}

// option returns an env_specs value, falling back to def.
func (e *Env) option(name string, def glua.LValue) glua.LValue {
	v, ok := e.options[name]
	if !ok {
		return def
	}
	switch x := v.(type) {
	case int:
		return glua.LNumber(x)
	case int64:
		return glua.LNumber(x)
	case float64:
		return glua.LNumber(x)
	case string:
		return glua.LString(x)
	case bool:
		return glua.LBool(x)
	case nil:
		return def
	}
	return glua.LString(fmt.Sprint(v))
}
