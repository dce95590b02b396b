package domain

import (
	"errors"
	"fmt"
)

// ErrLimitExceeded marks a payload over a platform ceiling, such as
// too many interactive buttons on one message.
var ErrLimitExceeded = errors.New("limit exceeded")

// ValidationError indicates malformed domain input, such as an
// unparsable grade string or an empty answer where one was required.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError indicates a referenced session, student, or curriculum
// node does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %q", e.Kind, e.ID)
}

// ExternalServiceError indicates a messaging or completion-service
// failure. Service names the collaborator ("messaging", "completion").
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s service error: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// StateError indicates conversation state is missing fields a step
// handler expected. Recovered locally by resetting to a safe step.
type StateError struct {
	Flow string
	Step string
	Err  error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("conversation state error in %s/%s: %v", e.Flow, e.Step, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }
