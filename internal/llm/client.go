// Package llm is the completion-service collaborator. Callers hand it a
// system instruction and a user message and get text back, optionally
// constrained to a JSON schema. Every caller in this codebase treats a
// failed completion the same way: fall back to deterministic logic. The
// contract therefore tolerates zero network access.
package llm

import (
	"context"
	"encoding/json"
)

// Client is the completion-service abstraction.
type Client interface {
	// Complete sends one prompt and returns the completion. The context
	// deadline bounds the whole call, including any retries.
	Complete(ctx context.Context, p Prompt) (*Completion, error)

	// ModelID returns the configured model identifier.
	ModelID() string
}

// Prompt is a single-turn completion request.
type Prompt struct {
	// System sets the model's role and constraints.
	System string

	// User is the user message.
	User string

	// Schema, when set, instructs the provider to return JSON conforming
	// to it. The completion content is the validated JSON.
	Schema *Schema

	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int

	// Temperature controls randomness, 0.0-1.0. Zero is deterministic.
	Temperature float64
}

// Completion is the model's output.
type Completion struct {
	// Content is the raw completion. When the prompt carried a Schema
	// this is the validated JSON object; otherwise it is plain text.
	Content json.RawMessage

	Usage Usage
	Model string

	// Truncated is set when generation stopped at the token cap.
	Truncated bool
}

// Text returns the completion content as plain text.
func (c *Completion) Text() string {
	return string(c.Content)
}

// Usage tracks token consumption for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
