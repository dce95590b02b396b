// Package config loads application settings from the environment, with
// an optional .env file for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sankofa-learn/sankofa/internal/llm"
	"github.com/sankofa-learn/sankofa/internal/store"
)

// Config is everything the binaries need to start.
type Config struct {
	// DBPath is the sqlite file. Defaults to the XDG data dir.
	DBPath string

	// TelegramToken authorizes the serve command's bot. Unused by
	// simulate.
	TelegramToken string

	// PollTimeout is the long-poll wait in seconds.
	PollTimeout int

	// LLM configures the completion service. A zero provider means
	// run fully deterministic.
	LLM llm.Config
}

// Load reads .env (when present) and the environment. Only serve needs
// a telegram token, so its absence is not an error here.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:      os.Getenv("SANKOFA_DB"),
		PollTimeout: 30,
	}
	if cfg.DBPath == "" {
		path, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
		cfg.DBPath = path
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	if v := os.Getenv("SANKOFA_POLL_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid SANKOFA_POLL_TIMEOUT %q", v)
		}
		cfg.PollTimeout = n
	}

	cfg.LLM = llm.ConfigFromEnv()
	return cfg, nil
}
