package main

import (
	"strconv"

	"github.com/aretw0/turnstile"
	"github.com/aretw0/turnstile/internal/cli"
	"github.com/aretw0/turnstile/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <game>",
	Short: "Play the instances of a game",
	Long: `Plays every instance of a game spec (or one ad-hoc instance of a registered
environment) and stores the transcripts.

Models are given once for every seat or once per seat:
  scripted:[1]|[2]   fixed responses
  custom             the player's custom_response
  mock               random [1] to [9]
  human              typed on the terminal
  openai[/model]     OpenAI chat model (OPENAI_API_KEY)
  anthropic[/model]  Anthropic model (ANTHROPIC_API_KEY)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{Game: args[0]}
		opts.Experiment, _ = cmd.Flags().GetString("experiment")
		opts.GameIDs, _ = cmd.Flags().GetIntSlice("instance")
		opts.Models, _ = cmd.Flags().GetStringArray("model")
		opts.SessionID, _ = cmd.Flags().GetString("session-id")
		opts.Players, _ = cmd.Flags().GetInt("players")
		opts.Seed, _ = cmd.Flags().GetInt64("seed")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		raw, _ := cmd.Flags().GetStringToString("option")
		opts.EnvOptions = parseOptions(raw)

		if app.Console.IsTTY && !opts.JSON && !opts.Quiet {
			tui.PrintBanner(app.Console.Out, turnstile.Version)
		}

		_, err := app.Run(cmd.Context(), opts)
		return cli.HandleExecutionError(err)
	},
}

// parseOptions types --option values as integers, floats or booleans when they parse.
func parseOptions(raw map[string]string) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = i
		} else if f, err := strconv.ParseFloat(v, 64); err == nil {
			out[k] = f
		} else if b, err := strconv.ParseBool(v); err == nil {
			out[k] = b
		} else {
			out[k] = v
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("experiment", "e", "", "Only play this experiment")
	runCmd.Flags().IntSlice("instance", nil, "Only play these game ids")
	runCmd.Flags().StringArrayP("model", "m", nil, "Responder per seat (repeat), or one for all seats; default mock")
	runCmd.Flags().String("session-id", "", "Session id (single instance only)")
	runCmd.Flags().Int("players", 0, "Seats for an environment without spec")
	runCmd.Flags().Int64("seed", 0, "Seed for an environment without spec")
	runCmd.Flags().StringToString("option", nil, "Environment option key=value for an environment without spec")
	runCmd.Flags().Bool("json", false, "Print one JSON summary per session")
	runCmd.Flags().BoolP("quiet", "q", false, "Print nothing")
}
