package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// retryClient retries transient failures with exponential backoff and
// jitter. It never waits past the context deadline: a timed-out call
// returns immediately so the caller can take its deterministic
// fallback instead of blocking the conversation turn.
type retryClient struct {
	inner Client
	cfg   RetryConfig
}

// WithRetry wraps a Client with bounded retries.
func WithRetry(c Client, cfg RetryConfig) Client {
	return &retryClient{inner: c, cfg: cfg}
}

func (r *retryClient) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	var lastErr error
	badRetried := false

	for attempt := range r.cfg.MaxAttempts {
		comp, err := r.inner.Complete(ctx, p)
		if err == nil {
			return comp, nil
		}
		lastErr = err

		if !retryable(err, &badRetried) || attempt == r.cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoff(attempt, err)):
		}
	}

	return nil, lastErr
}

func (r *retryClient) ModelID() string { return r.inner.ModelID() }

func retryable(err error, badRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// A malformed response gets one retry; the model may simply have
	// produced a bad sample.
	var bad *ErrBadResponse
	if errors.As(err, &bad) {
		if *badRetried {
			return false
		}
		*badRetried = true
		return true
	}

	return true
}

func (r *retryClient) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimited
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt))
	if wait > float64(r.cfg.MaxWait) {
		wait = float64(r.cfg.MaxWait)
	}

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
