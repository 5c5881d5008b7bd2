package determinism

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/turnstile"
	"github.com/aretw0/turnstile/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// IgnoredField marks lines dropped before comparing runs.
const IgnoredField = "timestamp"

// Factory builds the configuration of one run. It is called once per run so
// stateful responders (scripted cycles, seeded pickers) start fresh each time.
type Factory func() (turnstile.SessionConfig, error)

// Run is the serialized record of one episode.
type Run struct {
	Transcript []byte // Indented JSON, timestamps removed
	Events     []byte // Environment event log, same normalization
}

// Report is the comparison of two runs of the same episode.
type Report struct {
	Game          string
	Deterministic bool
	First, Second Run
}

// Normalize drops every line mentioning IgnoredField.
func Normalize(data []byte) []byte {
	lines := bytes.Split(data, []byte("\n"))
	kept := lines[:0]
	for _, line := range lines {
		if !bytes.Contains(line, []byte(IgnoredField)) {
			kept = append(kept, line)
		}
	}
	return bytes.Join(kept, []byte("\n"))
}

// Check plays the episode built by newConfig twice, concurrently, and compares
// the normalized transcripts and event logs byte for byte. The runs are
// stored as <id>-1 and <id>-2 (id defaults to "determinism-check") and
// compared under the shared id.
func Check(ctx context.Context, eng *turnstile.Engine, newConfig Factory) (*Report, error) {
	var runs [2]Run
	var game string

	g, ctx := errgroup.WithContext(ctx)
	for i := range runs {
		g.Go(func() error {
			cfg, err := newConfig()
			if err != nil {
				return err
			}
			base := cfg.SessionID
			if base == "" {
				base = "determinism-check"
			}
			cfg.SessionID = fmt.Sprintf("%s-%d", base, i+1)
			s, err := eng.NewSession(ctx, cfg)
			if err != nil {
				return err
			}
			if _, err := s.Play(ctx); err != nil {
				return err
			}
			run, err := record(s, base)
			if err != nil {
				return fmt.Errorf("run %d: %w", i+1, err)
			}
			runs[i] = run
			if i == 0 {
				game = s.Game()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Report{
		Game: game,
		Deterministic: bytes.Equal(runs[0].Transcript, runs[1].Transcript) &&
			bytes.Equal(runs[0].Events, runs[1].Events),
		First:  runs[0],
		Second: runs[1],
	}, nil
}

func record(s *turnstile.Session, sessionID string) (Run, error) {
	t := s.Transcript()
	t.SessionID = sessionID
	tr, err := marshal(t)
	if err != nil {
		return Run{}, err
	}
	events, err := marshal(s.Environment().Observe(0))
	if err != nil {
		return Run{}, err
	}
	return Run{Transcript: tr, Events: events}, nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return Normalize(data), nil
}

// Transcripts compares two stored transcripts the same way Check compares runs.
func Transcripts(a, b *domain.Transcript) (bool, error) {
	x, err := marshal(a)
	if err != nil {
		return false, err
	}
	y, err := marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(x, y), nil
}
