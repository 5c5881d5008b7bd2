package turnstile_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/turnstile"
	"github.com/aretw0/turnstile/pkg/adapters/lua"
	"github.com/aretw0/turnstile/pkg/agent"
	"github.com/aretw0/turnstile/pkg/registry"
)

// ExampleEngine_Run plays a short game of Nim between two scripted agents.
func ExampleEngine_Run() {
	// 1. Build the registry once; it is shared by every session.
	entries, err := lua.Builtins()
	if err != nil {
		log.Fatal(err)
	}
	reg, err := registry.NewRegistry(entries...)
	if err != nil {
		log.Fatal(err)
	}

	engine, err := turnstile.New(reg)
	if err != nil {
		log.Fatal(err)
	}

	// 2. Seat the agents. Player 1 first asks for too many stones and retries.
	res, err := engine.Run(context.Background(), turnstile.SessionConfig{
		SessionID:  "example",
		EnvID:      "nim-v0",
		EnvOptions: map[string]any{"pile": 4},
		Players: []turnstile.PlayerConfig{
			{Responder: agent.NewScripted("[1]", "[2]")},
			{Responder: agent.NewScripted("[9]", "[1]")},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	// 3. Inspect the outcome.
	for _, id := range res.Outcome.AgentIDs() {
		a, _ := res.Outcome.Agent(id)
		fmt.Printf("Player %d: reward %v\n", id, a.Reward)
	}
	fmt.Println("Violations:", res.Violations)
	fmt.Println("Success:", res.Metrics.Success)

	// Output:
	// Player 0: reward 1
	// Player 1: reward -1
	// Violations: 1
	// Success: 1
}
