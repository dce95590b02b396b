package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrRateLimited indicates the provider returned 429.
type ErrRateLimited struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("completion rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimited) Unwrap() error { return e.Err }

// ErrBadResponse indicates the model returned content that is not valid
// JSON or does not conform to the requested schema.
type ErrBadResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrBadResponse) Error() string {
	return fmt.Sprintf("bad completion response: %v", e.Err)
}

func (e *ErrBadResponse) Unwrap() error { return e.Err }

// ErrUnavailable indicates the provider is down, unreachable, or the
// request failed at the transport level.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion service unavailable: %v", e.Err)
	}
	return "completion service unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }
