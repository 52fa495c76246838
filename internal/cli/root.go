// Package cli implements the Stillpoint command-line interface using
// Cobra. Subcommands: serve (HTTP API) and sweep (streak maintenance).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stillpoint",
	Short: "Stillpoint — meditation streak and achievement backend",
	Long: `Stillpoint is the backend for the Stillpoint meditation app.
It records meditation sessions, maintains daily streaks and milestone
achievements, and ranks users on minute-based leaderboards.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
