package cli

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/aretw0/turnstile/internal/config"
	"github.com/aretw0/turnstile/pkg/domain"
)

// GameListing describes an environment and the specs playing it.
type GameListing struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Players     int      `json:"players,omitempty"`
	Commands    []string `json:"commands,omitempty"` // Bracketed commands of the opening prompt
	Specs       []string `json:"specs,omitempty"`
}

var commandPattern = regexp.MustCompile(`\[[^\[\]]+\]`)

// PossibleCommands returns the distinct bracketed substrings of a prompt, in order.
func PossibleCommands(prompt string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range commandPattern.FindAllString(prompt, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// Games lists the registered environments with the commands of their
// opening prompt to player 0.
func (a *App) Games(ctx context.Context) ([]GameListing, error) {
	specs, err := a.Specs()
	if err != nil {
		return nil, err
	}
	byEnv := make(map[string][]string)
	for _, s := range specs {
		byEnv[s.EnvID] = append(byEnv[s.EnvID], s.GameName)
	}

	var out []GameListing
	for _, e := range a.Registry.List() {
		l := GameListing{ID: e.ID, Description: e.Description, Players: e.Players, Specs: byEnv[e.ID]}
		cmds, err := a.openingCommands(ctx, e.ID, max(e.Players, 1))
		if err != nil {
			a.Logger.Warn("Failed to read opening prompt", "env_id", e.ID, "error", err)
		}
		l.Commands = cmds
		out = append(out, l)
	}
	return out, nil
}

func (a *App) openingCommands(ctx context.Context, envID string, players int) ([]string, error) {
	env, err := a.Registry.Make(envID, nil)
	if err != nil {
		return nil, err
	}
	defer env.Close(ctx)

	if err := env.Reset(ctx, players, config.BaseSeed); err != nil {
		return nil, err
	}
	var prompt strings.Builder
	for _, e := range env.Observe(0) {
		if e.SenderID == domain.GameID && e.VisibleTo(0) {
			prompt.WriteString(e.Message)
			prompt.WriteByte('\n')
		}
	}
	return PossibleCommands(prompt.String()), nil
}

// PrintGames writes one line per game.
func PrintGames(w io.Writer, games []GameListing) {
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%d players\t%s\n", g.ID, g.Players, g.Description)
		if len(g.Commands) > 0 {
			fmt.Fprintf(w, "  commands: %v\n", g.Commands)
		}
		if len(g.Specs) > 0 {
			fmt.Fprintf(w, "  specs: %v\n", g.Specs)
		}
	}
}
