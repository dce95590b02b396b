package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sankofa-learn/sankofa/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "sankofa",
	Short: "Numeracy gap diagnostics over chat",
	Long:  "Sankofa finds where a child's maths foundations broke down, one chat message at a time, and tells parents and teachers what to work on next.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SANKOFA_DB env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(schoolCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then SANKOFA_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, nil
	}
	if p := os.Getenv("SANKOFA_DB"); p != "" {
		return p, nil
	}
	return store.DefaultDBPath()
}
