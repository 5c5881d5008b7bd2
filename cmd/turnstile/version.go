package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/turnstile"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of turnstile",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "turnstile version %s\n", strings.TrimSpace(turnstile.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
