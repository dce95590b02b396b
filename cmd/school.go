package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sankofa-learn/sankofa/internal/domain"
	"github.com/sankofa-learn/sankofa/internal/store"
)

var schoolCmd = &cobra.Command{
	Use:   "school",
	Short: "Manage schools and invitation codes",
}

var schoolAddCmd = &cobra.Command{
	Use:   "add <name> <invitation-code>",
	Short: "Register a school",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		school := &domain.School{
			ID:             uuid.NewString(),
			Name:           args[0],
			InvitationCode: args[1],
		}
		if err := s.CreateSchool(cmd.Context(), school); err != nil {
			return err
		}
		fmt.Printf("Registered %s with code %s\n", school.Name, school.InvitationCode)
		return nil
	},
}

var schoolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered schools",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		schools, err := s.Schools(cmd.Context())
		if err != nil {
			return err
		}
		if len(schools) == 0 {
			fmt.Println("No schools registered.")
			return nil
		}
		for _, sc := range schools {
			fmt.Printf("%-10s  %s\n", sc.InvitationCode, sc.Name)
		}
		return nil
	},
}

func init() {
	schoolCmd.AddCommand(schoolAddCmd)
	schoolCmd.AddCommand(schoolListCmd)
}
