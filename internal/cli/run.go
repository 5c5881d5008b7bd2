package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/turnstile"
	"github.com/aretw0/turnstile/internal/config"
	"github.com/aretw0/turnstile/internal/presentation/tui"
	"github.com/aretw0/turnstile/pkg/domain"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Game       string   // Game name of a spec, or an environment id
	Experiment string   // Empty plays every experiment
	GameIDs    []int    // Instances to play; empty plays all
	Models     []string // One per seat, or a single one for every seat
	SessionID  string   // Only valid when a single instance is played
	Players    int      // Seats for ad-hoc environment runs
	Seed       int64    // Seed for ad-hoc environment runs
	EnvOptions map[string]any
	JSON       bool
	Quiet      bool
}

// RunSummary is the JSON line printed per session.
type RunSummary struct {
	SessionID  string          `json:"session_id"`
	Game       string          `json:"game"`
	Experiment string          `json:"experiment"`
	GameID     int             `json:"game_id"`
	Metrics    domain.Metrics  `json:"metrics"`
	Rounds     int             `json:"rounds"`
	Violations int             `json:"violations"`
	Rewards    map[int]float64 `json:"rewards"`
}

type plannedRun struct {
	experiment string
	instance   config.Instance
}

// Run plays the selected instances of a game, one session each.
func (a *App) Run(ctx context.Context, opts RunOptions) ([]RunSummary, error) {
	spec, err := a.spec(opts.Game, opts.Players, opts.Seed, opts.EnvOptions)
	if err != nil {
		if errors.Is(err, errNoGame) {
			return nil, fmt.Errorf("unknown game %q (see 'turnstile games')", opts.Game)
		}
		return nil, err
	}

	plan, err := planRuns(spec, opts)
	if err != nil {
		return nil, err
	}
	if opts.SessionID != "" && len(plan) > 1 {
		return nil, fmt.Errorf("--session-id needs a single instance, %d selected", len(plan))
	}

	engine, err := a.Engine()
	if err != nil {
		return nil, err
	}

	var summaries []RunSummary
	for _, p := range plan {
		cfg, err := a.sessionConfig(spec, p, opts)
		if err != nil {
			return summaries, err
		}
		res, err := engine.Run(ctx, cfg)
		if err != nil {
			return summaries, err
		}

		s := RunSummary{
			SessionID:  res.SessionID,
			Game:       spec.GameName,
			Experiment: p.experiment,
			GameID:     p.instance.GameID,
			Metrics:    res.Metrics,
			Rounds:     res.Rounds,
			Violations: res.Violations,
			Rewards:    res.Outcome.Rewards(),
		}
		summaries = append(summaries, s)
		a.report(s, opts)
	}
	return summaries, nil
}

func planRuns(spec *config.GameSpec, opts RunOptions) ([]plannedRun, error) {
	experiments := spec.Experiments()
	if opts.Experiment != "" {
		experiments = []string{opts.Experiment}
	}

	var plan []plannedRun
	for _, exp := range experiments {
		instances, err := spec.ExperimentInstances(exp)
		if err != nil {
			return nil, err
		}
		for _, inst := range instances {
			if len(opts.GameIDs) > 0 && !slices.Contains(opts.GameIDs, inst.GameID) {
				continue
			}
			plan = append(plan, plannedRun{experiment: exp, instance: inst})
		}
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("game %s: no instance selected", spec.GameName)
	}
	return plan, nil
}

func (a *App) sessionConfig(spec *config.GameSpec, p plannedRun, opts RunOptions) (turnstile.SessionConfig, error) {
	cfg := turnstile.SessionConfig{
		SessionID:  opts.SessionID,
		Game:       spec.GameName,
		EnvID:      spec.EnvID,
		Experiment: p.experiment,
		Master:     spec.Master,
		Scorer:     spec.Scorer,
		Seed:       p.instance.Seed,
		EnvOptions: p.instance.EnvSpecs,
	}

	models := opts.Models
	if len(models) == 0 {
		models = []string{"mock"}
	}
	if len(models) > 1 && len(models) != len(p.instance.PlayerSpecs) {
		return cfg, fmt.Errorf("game %s has %d seats but %d models were given", spec.GameName, len(p.instance.PlayerSpecs), len(models))
	}

	for i, ps := range p.instance.PlayerSpecs {
		model := models[0]
		if len(models) > 1 {
			model = models[i]
		}
		r, err := NewResponder(model, ps, seedFor(p.instance.Seed, i), a.Settings, a.Console)
		if err != nil {
			return cfg, fmt.Errorf("seat %d: %w", i, err)
		}
		cfg.Players = append(cfg.Players, turnstile.PlayerConfig{Role: ps.Role, Responder: r})
	}
	return cfg, nil
}

func (a *App) report(s RunSummary, opts RunOptions) {
	if a.Console == nil || opts.Quiet {
		return
	}
	if opts.JSON {
		data, err := json.Marshal(s)
		if err != nil {
			a.Logger.Error("Summary encode failed", "error", err)
			return
		}
		fmt.Fprintln(a.Console.Out, string(data))
		return
	}
	printSystemMessage(a.Console.Out, "%s/%s #%d: %s", s.Game, s.Experiment, s.GameID,
		tui.Summary(s.SessionID, s.Metrics, s.Violations))
}
