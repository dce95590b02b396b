package llm

import (
	"context"
	"fmt"
)

// NewClient builds a Client from configuration, wrapped with retry and
// event recording. Pass a nil sink to skip event recording (tests).
func NewClient(ctx context.Context, cfg Config, sink EventSink) (Client, error) {
	var base Client
	var err error

	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIClient(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicClient(cfg.Anthropic)
	case "gemini":
		base, err = NewGeminiClient(ctx, cfg.Gemini)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown completion provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s client: %w", cfg.Provider, err)
	}

	if sink != nil {
		base = WithEvents(base, sink)
	}
	return WithRetry(base, cfg.Retry), nil
}
