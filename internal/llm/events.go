package llm

import (
	"context"
	"log/slog"
	"time"
)

// RequestEvent is the durable record of one completion call.
type RequestEvent struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// EventSink receives completion request events. The sqlite store
// implements this; tests use an in-memory slice.
type EventSink interface {
	AppendLLMRequest(ctx context.Context, ev RequestEvent) error
}

// eventClient records every completion call as an event.
type eventClient struct {
	inner Client
	sink  EventSink
}

// WithEvents wraps a Client so every call is appended to the sink.
func WithEvents(c Client, sink EventSink) Client {
	return &eventClient{inner: c, sink: sink}
}

func (e *eventClient) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	start := time.Now()
	comp, err := e.inner.Complete(ctx, p)

	ev := RequestEvent{
		Provider:  e.inner.ModelID(),
		Model:     e.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if comp != nil {
		ev.InputTokens = comp.Usage.InputTokens
		ev.OutputTokens = comp.Usage.OutputTokens
		ev.Model = comp.Model
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	// Event persistence must never fail the request.
	if sinkErr := e.sink.AppendLLMRequest(ctx, ev); sinkErr != nil {
		slog.Warn("failed to record completion event", "error", sinkErr)
	}

	return comp, err
}

func (e *eventClient) ModelID() string { return e.inner.ModelID() }

type purposeKey struct{}

// WithPurpose tags the context with what the completion is for
// ("answer-analysis", "profile-narrative", "question-generation").
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the purpose tag, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok {
		return p
	}
	return "unknown"
}
