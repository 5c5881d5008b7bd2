package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/turnstile/internal/presentation/graph"
	"github.com/aretw0/turnstile/internal/presentation/tui"
	"github.com/aretw0/turnstile/pkg/adapters/sqlite"
	"github.com/aretw0/turnstile/pkg/domain"
)

// ListSessions returns the stored session ids, optionally only those of one
// game (and experiment).
func (a *App) ListSessions(ctx context.Context, game, experiment string) ([]string, error) {
	if game == "" {
		return a.Backend.Sessions.List(ctx)
	}
	if db, ok := a.Backend.Store.(*sqlite.Store); ok {
		return db.ListByGame(ctx, game, experiment)
	}

	ids, err := a.Backend.Sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range ids {
		t, err := a.Backend.Sessions.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if t.Game == game && (experiment == "" || t.Experiment == experiment) {
			out = append(out, id)
		}
	}
	return out, nil
}

// Inspect formats.
const (
	FormatMarkdown = "markdown"
	FormatPretty   = "pretty"
	FormatJSON     = "json"
	FormatMermaid  = "mermaid"
)

// InspectSession writes a stored transcript in the given format.
func (a *App) InspectSession(ctx context.Context, w io.Writer, id, format string) error {
	t, err := a.Backend.Sessions.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", id, err)
	}
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatMermaid:
		_, err := io.WriteString(w, graph.GenerateMermaid(t))
		return err
	case FormatPretty:
		return tui.PrintTranscript(w, t, true)
	case FormatMarkdown, "":
		return tui.PrintTranscript(w, t, false)
	}
	return fmt.Errorf("unknown format %q", format)
}

// RemoveSessions deletes transcripts, reporting each one.
func (a *App) RemoveSessions(ctx context.Context, w io.Writer, ids []string) error {
	var failed int
	for _, id := range ids {
		exists, err := a.Backend.Sessions.Exists(ctx, id)
		if err == nil && !exists {
			err = domain.ErrSessionNotFound
		}
		if err == nil {
			err = a.Backend.Sessions.Delete(ctx, id)
		}
		if err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions could not be removed", failed, len(ids))
	}
	return nil
}
