/*
Package turnstile orchestrates turn-based text games between agents.

A session seats a set of agents (each backed by a Responder: a scripted list,
an LLM client, a function) in front of an environment that owns the rules.
The game master loop is fixed:

	agent   := environment's current agent
	context := events the agent has not seen yet
	action  := agent.Invoke(context)
	done    := environment.Step(action)

Every step is scanned for the invalid move marker; a flagged step counts as a
request violation and never completes a round. A round completes once every
seated agent has acted with no violation in the latest step. When the game
ends the environment is closed exactly once and its rewards are normalized
into a domain.Outcome, classified by the session's master Variant and logged
into the transcript under stable keys for scorers.

# Usage

	entries, _ := lua.Builtins()
	reg, _ := registry.NewRegistry(entries...)

	engine, err := turnstile.New(reg,
		turnstile.WithLogger(logging.New(slog.LevelInfo)),
		turnstile.WithStore(file.New(".turnstile/sessions")),
	)
	if err != nil {
		log.Fatal(err)
	}

	res, err := engine.Run(ctx, turnstile.SessionConfig{
		EnvID: "guess-v0",
		Seed:  525119131,
		Players: []turnstile.PlayerConfig{
			{Role: "Guesser", Responder: openai.New()},
		},
	})

Drivers that need control between turns use NewSession with Observe and Step.
*/
package turnstile
