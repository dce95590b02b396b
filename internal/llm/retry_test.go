package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := NewMockClient(
		MockReply{Content: json.RawMessage(`{"ok":true}`)},
	)
	c := WithRetry(mock, retryConfig())

	comp, err := c.Complete(context.Background(), Prompt{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(comp.Content) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", comp.Content)
	}
	if mock.Calls() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.Calls())
	}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockClient(
		MockReply{Err: &ErrUnavailable{Err: errors.New("down")}},
		MockReply{Content: json.RawMessage(`{"ok":true}`)},
	)
	c := WithRetry(mock, retryConfig())

	comp, err := c.Complete(context.Background(), Prompt{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(comp.Content) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", comp.Content)
	}
	if mock.Calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.Calls())
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	mock := NewMockClient(
		MockReply{Err: &ErrUnavailable{Err: errors.New("down")}},
		MockReply{Err: &ErrUnavailable{Err: errors.New("down")}},
		MockReply{Err: &ErrUnavailable{Err: errors.New("down")}},
		MockReply{Content: json.RawMessage(`{"ok":true}`)},
	)
	c := WithRetry(mock, retryConfig())

	_, err := c.Complete(context.Background(), Prompt{})
	var unavail *ErrUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if mock.Calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.Calls())
	}
}

func TestRetry_BadResponseRetriedOnce(t *testing.T) {
	mock := NewMockClient(
		MockReply{Err: &ErrBadResponse{Err: errors.New("not json")}},
		MockReply{Err: &ErrBadResponse{Err: errors.New("not json")}},
		MockReply{Content: json.RawMessage(`{"ok":true}`)},
	)
	c := WithRetry(mock, retryConfig())

	_, err := c.Complete(context.Background(), Prompt{})
	var bad *ErrBadResponse
	if !errors.As(err, &bad) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
	if mock.Calls() != 2 {
		t.Fatalf("bad response gets exactly one retry, got %d calls", mock.Calls())
	}
}

func TestRetry_ContextCancelNotRetried(t *testing.T) {
	mock := NewMockClient(
		MockReply{Err: context.Canceled},
		MockReply{Content: json.RawMessage(`{"ok":true}`)},
	)
	c := WithRetry(mock, retryConfig())

	_, err := c.Complete(context.Background(), Prompt{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.Calls() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.Calls())
	}
}

func TestRetry_RateLimitHonorsRetryAfter(t *testing.T) {
	mock := NewMockClient(
		MockReply{Err: &ErrRateLimited{RetryAfter: 1 * time.Millisecond, Err: errors.New("429")}},
		MockReply{Content: json.RawMessage(`{"ok":true}`)},
	)
	c := WithRetry(mock, retryConfig())

	comp, err := c.Complete(context.Background(), Prompt{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(comp.Content) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", comp.Content)
	}
}
