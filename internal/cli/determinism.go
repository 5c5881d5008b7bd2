package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/turnstile"
	"github.com/aretw0/turnstile/internal/config"
	"github.com/aretw0/turnstile/pkg/determinism"
)

// DeterminismOptions configures the check-determinism command.
type DeterminismOptions struct {
	Games       []string // Empty checks every game
	Model       string   // Responder of every seat, "mock" by default
	Overwrite   bool     // Re-check games already recorded
	ResultsPath string   // Defaults to the data directory
}

// CheckDeterminism plays the first instance of each game twice and records
// whether both transcripts match.
func (a *App) CheckDeterminism(ctx context.Context, w io.Writer, opts DeterminismOptions) (map[string]bool, error) {
	if opts.Model == "" {
		opts.Model = "mock"
	}
	if opts.ResultsPath == "" {
		opts.ResultsPath = a.Settings.DeterminismResultsPath()
	}
	results, err := determinism.LoadResults(opts.ResultsPath)
	if err != nil {
		return nil, err
	}

	specs, err := a.determinismSpecs(opts.Games)
	if err != nil {
		return nil, err
	}

	// Both runs share a session id, so nothing is persisted.
	engine, err := createEngine(a.Registry, nil, a.Logger)
	if err != nil {
		return nil, err
	}

	verdicts := make(map[string]bool)
	for _, spec := range specs {
		if results.Tested(spec.GameName, opts.Model) && !opts.Overwrite {
			v, _ := results.Verdict(spec.GameName, opts.Model)
			verdicts[spec.GameName] = v
			a.Logger.Info("Skipping game already checked", "game", spec.GameName, "model", opts.Model)
			continue
		}

		plan, err := planRuns(spec, RunOptions{})
		if err != nil {
			return verdicts, err
		}
		first := plan[0]
		report, err := determinism.Check(ctx, engine, func() (turnstile.SessionConfig, error) {
			return a.sessionConfig(spec, first, RunOptions{Models: []string{opts.Model}})
		})
		if err != nil {
			return verdicts, fmt.Errorf("game %s: %w", spec.GameName, err)
		}

		results.Record(spec.GameName, opts.Model, report.Deterministic)
		verdicts[spec.GameName] = report.Deterministic
		verdict := "deterministic"
		if !report.Deterministic {
			verdict = "NOT deterministic"
		}
		printSystemMessage(w, "%s: %s", spec.GameName, verdict)
	}

	if err := results.Save(); err != nil {
		return verdicts, err
	}
	return verdicts, nil
}

func (a *App) determinismSpecs(names []string) ([]*config.GameSpec, error) {
	if len(names) == 0 {
		specs, err := a.Specs()
		if err != nil {
			return nil, err
		}
		if len(specs) > 0 {
			return specs, nil
		}
		for _, e := range a.Registry.List() {
			names = append(names, e.ID)
		}
	}

	var out []*config.GameSpec
	for _, name := range names {
		spec, err := a.spec(name, 0, 0, nil)
		if err != nil {
			return nil, fmt.Errorf("game %q: %w", name, err)
		}
		out = append(out, spec)
	}
	return out, nil
}
