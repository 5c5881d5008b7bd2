package main

import (
	"github.com/aretw0/turnstile/internal/cli"
	"github.com/spf13/cobra"
)

var checkDeterminismCmd = &cobra.Command{
	Use:   "check-determinism [game...]",
	Short: "Play each game twice with the same seed and compare the transcripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.DeterminismOptions{Games: args}
		opts.Model, _ = cmd.Flags().GetString("model")
		opts.Overwrite, _ = cmd.Flags().GetBool("overwrite")
		opts.ResultsPath, _ = cmd.Flags().GetString("results")

		_, err := app.CheckDeterminism(cmd.Context(), cmd.OutOrStdout(), opts)
		return err
	},
}

func init() {
	rootCmd.AddCommand(checkDeterminismCmd)
	checkDeterminismCmd.Flags().StringP("model", "m", "mock", "Responder of every seat")
	checkDeterminismCmd.Flags().Bool("overwrite", false, "Re-check games already recorded")
	checkDeterminismCmd.Flags().String("results", "", "Results file (default <data dir>/results/determinism_check.json)")
}
