package main

import (
	"fmt"

	"github.com/aretw0/turnstile/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored transcripts",
	Long:  `List, inspect, and remove the transcripts kept by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		game, _ := cmd.Flags().GetString("game")
		experiment, _ := cmd.Flags().GetString("experiment")

		sessions, err := app.ListSessions(cmd.Context(), game, experiment)
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Show the transcript of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := cli.FormatMarkdown
		if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
			format = cli.FormatPretty
		}
		if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
			format = cli.FormatMermaid
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			format = cli.FormatJSON
		}
		return app.InspectSession(cmd.Context(), cmd.OutOrStdout(), args[0], format)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RemoveSessions(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionLsCmd.Flags().String("game", "", "Only sessions of this game")
	sessionLsCmd.Flags().String("experiment", "", "Only sessions of this experiment (with --game)")
	sessionInspectCmd.Flags().Bool("pretty", false, "Render the transcript for the terminal")
	sessionInspectCmd.Flags().Bool("json", false, "Print the raw transcript JSON")
	sessionInspectCmd.Flags().Bool("mermaid", false, "Print the transcript as a Mermaid sequence diagram")
}
