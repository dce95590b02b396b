package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sankofa-learn/sankofa/internal/analysis"
	"github.com/sankofa-learn/sankofa/internal/channel"
	"github.com/sankofa-learn/sankofa/internal/config"
	"github.com/sankofa-learn/sankofa/internal/curriculum"
	"github.com/sankofa-learn/sankofa/internal/engine"
	"github.com/sankofa-learn/sankofa/internal/flow"
	"github.com/sankofa-learn/sankofa/internal/llm"
	"github.com/sankofa-learn/sankofa/internal/profile"
	"github.com/sankofa-learn/sankofa/internal/question"
	"github.com/sankofa-learn/sankofa/internal/store"
)

// staleSweepInterval is how often in-progress sessions past the
// activity window are marked timed out.
const staleSweepInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
		}
		if p, _ := cmd.Flags().GetString("db"); p != "" {
			cfg.DBPath = p
		}

		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		log := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tg, err := channel.NewTelegram(cfg.TelegramToken)
		if err != nil {
			return err
		}
		exec, err := buildExecutor(cmd.Context(), cfg, s, tg, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go sweepStale(ctx, s, tg, log)

		log.Info("serving", "db", cfg.DBPath)
		updates := tg.Updates(0, cfg.PollTimeout)
		for {
			select {
			case <-ctx.Done():
				tg.Stop()
				return nil
			case in, ok := <-updates:
				if !ok {
					return nil
				}
				res := exec.Handle(ctx, in)
				if res.Err != nil {
					log.Warn("turn ended with contained error", "chat", in.ChatID, "error", res.Err)
				}
			}
		}
	},
}

// buildExecutor wires the pipeline; serve and simulate share it.
func buildExecutor(ctx context.Context, cfg *config.Config, s *store.Store, msgr channel.Messenger, log *slog.Logger) (*flow.Executor, error) {
	graph := curriculum.Default()
	eng := engine.New(graph, curriculum.ScreeningNodes())

	client := buildClient(ctx, cfg, s, log)

	var gen question.Generator = question.NewTemplateGenerator()
	if client != nil {
		gen = question.NewLLMGenerator(client)
	}

	var enricher *profile.Enricher
	if client != nil {
		enricher = profile.NewEnricher(client)
	}

	return flow.New(s, msgr, eng, gen, analysis.New(client), enricher, log), nil
}

// buildClient returns nil when no provider is configured; the whole
// pipeline then runs on templates and exact-match grading.
func buildClient(ctx context.Context, cfg *config.Config, sink llm.EventSink, log *slog.Logger) llm.Client {
	llmCfg := cfg.LLM
	if err := llmCfg.Validate(); err != nil {
		discovered, ok := llm.Discover()
		if !ok {
			log.Info("no completion provider configured; running deterministic")
			return nil
		}
		llmCfg = discovered
	}
	client, err := llm.NewClient(ctx, llmCfg, sink)
	if err != nil {
		log.Warn("completion client unavailable; running deterministic", "error", err)
		return nil
	}
	log.Info("completion provider ready", "provider", llmCfg.Provider)
	return client
}

// sweepStale times out silent sessions, nudges their chats with the
// re-engagement template, and prunes old dedup rows.
func sweepStale(ctx context.Context, s *store.Store, msgr channel.Messenger, log *slog.Logger) {
	t := time.NewTicker(staleSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			cutoff := time.Now().Add(-flow.ExpiryWindow)

			stale, err := s.AbandonStale(ctx, cutoff)
			if err != nil {
				log.Warn("stale session sweep failed", "error", err)
			}
			for _, a := range stale {
				if a.OptedOut || a.ChatID == 0 {
					continue
				}
				name := a.ActorName
				if name == "" {
					name = "there"
				}
				student := a.StudentName
				if student == "" {
					student = "your child"
				}
				if _, err := msgr.SendTemplate(ctx, a.ChatID, "diagnostic_ready", []string{name, student}); err != nil {
					log.Warn("re-engagement send failed", "chat", a.ChatID, "error", err)
				}
			}
			if len(stale) > 0 {
				log.Info("stale sessions timed out", "count", len(stale))
			}

			if n, err := s.PruneSeen(ctx, cutoff); err != nil {
				log.Warn("seen message prune failed", "error", err)
			} else if n > 0 {
				log.Info("seen messages pruned", "count", n)
			}
		}
	}
}
