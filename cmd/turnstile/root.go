package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/turnstile/internal/cli"
	"github.com/aretw0/turnstile/internal/config"
	"github.com/aretw0/turnstile/internal/otel"
	"github.com/spf13/cobra"
)

var (
	app             *cli.App
	shutdownTracing func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "turnstile",
	Short: "Turnstile orchestrates turn-based text games between agents",
	Long: `Turnstile plays turn-based multiplayer text games between language-model
agents, scripted players and humans, and stores a transcript of every session.

Settings come from TURNSTILE_* environment variables; game specs are read
from TURNSTILE_GAMES_DIR (or --games-dir).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		if dir, _ := cmd.Flags().GetString("games-dir"); dir != "" {
			settings.GamesDir = dir
		}
		if store, _ := cmd.Flags().GetString("store"); store != "" {
			settings.Store = store
		}

		debug, _ := cmd.Flags().GetBool("debug")
		logger, err := cli.NewLogger(settings, debug)
		if err != nil {
			return err
		}

		shutdownTracing, err = otel.Setup(cmd.Context(), "turnstile", settings.OTelEndpoint)
		if err != nil {
			return err
		}

		app, err = cli.NewApp(settings, logger, cli.StdConsole())
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTracing != nil {
			if err := shutdownTracing(context.Background()); err != nil {
				return err
			}
		}
		if app != nil {
			return app.Close()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx := cli.NewSignalContext(context.Background())
	defer ctx.Cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("games-dir", "", "Directory of game specs and Lua games (overrides TURNSTILE_GAMES_DIR)")
	rootCmd.PersistentFlags().String("store", "", "Transcript store: memory, file, redis or sqlite (overrides TURNSTILE_STORE)")
}
