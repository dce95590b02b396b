package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sankofa-learn/sankofa/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion-service usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		since := time.Now().AddDate(0, 0, -days)
		usage, err := s.LLMUsage(cmd.Context(), since)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		if usage.Requests == 0 {
			fmt.Println("No completion usage recorded.")
			return nil
		}
		fmt.Printf("Last %d days\n", days)
		fmt.Printf("  Requests:       %d (%d failed)\n", usage.Requests, usage.Failures)
		fmt.Printf("  Input tokens:   %d\n", usage.InputTokens)
		fmt.Printf("  Output tokens:  %d\n", usage.OutputTokens)
		return nil
	},
}

func init() {
	statsCmd.Flags().IntP("days", "d", 30, "Window in days")
}
