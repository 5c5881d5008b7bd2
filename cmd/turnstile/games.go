package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/turnstile/internal/cli"
	"github.com/spf13/cobra"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List the registered games and their opening commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		games, err := app.Games(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(games, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		cli.PrintGames(cmd.OutOrStdout(), games)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gamesCmd)
	gamesCmd.Flags().Bool("json", false, "Print as JSON")
}
