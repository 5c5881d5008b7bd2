package lua

import (
	"fmt"

	"github.com/aretw0/turnstile/pkg/domain"
	glua "github.com/yuin/gopher-lua"
)

// newState opens a Lua state with the base, table, string and math libraries only.
func newState() *glua.LState {
	L := glua.NewState(glua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   glua.LGFunction
	}{
		{glua.LoadLibName, glua.OpenPackage},
		{glua.BaseLibName, glua.OpenBase},
		{glua.TabLibName, glua.OpenTable},
		{glua.StringLibName, glua.OpenString},
		{glua.MathLibName, glua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(glua.LString(lib.name))
		L.Call(1, 0)
	}
	return L
}

// loadGame runs a script and returns the game table it evaluates to.
func loadGame(L *glua.LState, source string) (*glua.LTable, error) {
	top := L.GetTop()
	if err := L.DoString(source); err != nil {
		return nil, err
	}
	defer L.SetTop(top)

	if L.GetTop() == top {
		return nil, fmt.Errorf("script must return a game table")
	}
	game, ok := L.Get(-1).(*glua.LTable)
	if !ok {
		return nil, fmt.Errorf("script must return a table, got %s", L.Get(-1).Type())
	}
	return game, nil
}

// registerModule exposes the "game" global to scripts.
//
//	game.players()                 number of seated agents
//	game.current()                 agent expected to act
//	game.set_current(p)            hand the turn to p
//	game.next_player()             rotate the turn, returns the new current agent
//	game.broadcast(msg)            narration visible to everyone
//	game.tell(p, msg)              narration visible to p only
//	game.invalid(p, reason)        reject p's move, returns p's invalid move count
//	game.set_reward(p, r)          final reward of p (default 0)
//	game.finish(reason [, p])      end the game; p marks an invalid final move
//	game.random(lo, hi)            seeded integer in [lo, hi]
//	game.option(name, default)     env_specs value
//	game.role(p, name)             display name of p
func (e *Env) registerModule() {
	mod := e.L.SetFuncs(e.L.NewTable(), map[string]glua.LGFunction{
		"players": func(L *glua.LState) int {
			L.Push(glua.LNumber(e.agents))
			return 1
		},
		"current": func(L *glua.LState) int {
			L.Push(glua.LNumber(e.current))
			return 1
		},
		"set_current": func(L *glua.LState) int {
			p := e.checkPlayer(L, 1)
			e.current = p
			return 0
		},
		"next_player": func(L *glua.LState) int {
			e.current = (e.current + 1) % e.agents
			L.Push(glua.LNumber(e.current))
			return 1
		},
		"broadcast": func(L *glua.LState) int {
			e.log.Append(domain.GameID, domain.Broadcast, domain.KindNarration, L.CheckString(1))
			return 0
		},
		"tell": func(L *glua.LState) int {
			p := e.checkPlayer(L, 1)
			e.log.Append(domain.GameID, p, domain.KindNarration, L.CheckString(2))
			return 0
		},
		"invalid": func(L *glua.LState) int {
			p := e.checkPlayer(L, 1)
			reason := L.OptString(2, "")
			e.invalid[p]++
			e.log.Append(domain.GameID, p, domain.KindSystem,
				fmt.Sprintf("Player %d %s. Reason: %s", p, domain.InvalidMoveMarker, reason))
			L.Push(glua.LNumber(e.invalid[p]))
			return 1
		},
		"set_reward": func(L *glua.LState) int {
			p := e.checkPlayer(L, 1)
			e.rewards[p] = float64(L.CheckNumber(2))
			return 0
		},
		"finish": func(L *glua.LState) int {
			e.reason = L.CheckString(1)
			if L.GetTop() >= 2 && L.Get(2) != glua.LNil {
				e.offender = e.checkPlayer(L, 2)
			}
			e.finished = true
			e.log.Append(domain.GameID, domain.Broadcast, domain.KindSystem, e.reason)
			return 0
		},
		"random": func(L *glua.LState) int {
			lo, hi := L.CheckInt(1), L.CheckInt(2)
			if hi < lo {
				L.ArgError(2, "upper bound below lower bound")
			}
			L.Push(glua.LNumber(lo + e.rng.Intn(hi-lo+1)))
			return 1
		},
		"option": func(L *glua.LState) int {
			L.Push(e.option(L.CheckString(1), L.Get(2)))
			return 1
		},
		"role": func(L *glua.LState) int {
			p := e.checkPlayer(L, 1)
			e.roles[p] = L.CheckString(2)
			return 0
		},
	})
	e.L.SetGlobal("game", mod)
}

func (e *Env) checkPlayer(L *glua.LState, n int) int {
	p := L.CheckInt(n)
	if p < 0 || p >= e.agents {
		L.ArgError(n, fmt.Sprintf("player %d is not seated", p))
	}
	return p
}
