package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sankofa-learn/sankofa/internal/channel"
	"github.com/sankofa-learn/sankofa/internal/config"
	"github.com/sankofa-learn/sankofa/internal/store"
)

// simulateChatID is the fixed chat identity of the local REPL actor.
const simulateChatID int64 = 1

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a conversation in the terminal, no network",
	Long:  "Simulate plays the whole pipeline through stdin/stdout against a recording messenger, so flows can be exercised without a bot token or API keys.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return err
		}

		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		rec := channel.NewRecorder()
		exec, err := buildExecutor(cmd.Context(), cfg, s, rec, log)
		if err != nil {
			return err
		}

		fmt.Println("Type messages as a parent would. Ctrl-D to quit.")
		scanner := bufio.NewScanner(os.Stdin)
		seq := 0
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			seq++
			in := channel.Inbound{
				MessageID:  fmt.Sprintf("sim-%d", seq),
				ChatID:     simulateChatID,
				Kind:       channel.InboundText,
				Text:       scanner.Text(),
				SenderName: "Simulator",
			}
			res := exec.Handle(cmd.Context(), in)
			if res.Err != nil {
				fmt.Printf("[error: %v]\n", res.Err)
			}
			for _, m := range rec.Messages() {
				switch m.Kind {
				case channel.SentButtons:
					fmt.Println(m.Text)
					for _, b := range m.Buttons {
						fmt.Printf("  [%s]\n", b.Label)
					}
				case channel.SentList:
					fmt.Println(m.Text)
					for _, sec := range m.Sections {
						for _, row := range sec.Rows {
							fmt.Printf("  %s (%s)\n", row.Title, row.Description)
						}
					}
				default:
					fmt.Println(m.Text)
				}
			}
			rec.Reset()
		}
	},
}
