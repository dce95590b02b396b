// Package domain holds the records shared across the diagnostic engine,
// conversation flows, and storage, plus the error taxonomy used by all of
// them. Persisted records use plain struct fields with shared helpers
// rather than embedded base types.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ActorKind distinguishes the two conversation-facing roles.
type ActorKind string

const (
	ActorGuardian ActorKind = "guardian"
	ActorEducator ActorKind = "educator"
)

// Guardian is a parent or caregiver interacting over the messaging channel.
type Guardian struct {
	ID        string
	ChatID    int64 // channel-level identity (e.g. telegram chat)
	Name      string
	Language  string
	OptedIn   bool
	OptedOut  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Educator is a teacher interacting over the messaging channel.
type Educator struct {
	ID         string
	ChatID     int64
	Name       string
	SchoolID   string
	SchoolName string
	ClassName  string
	OptedIn    bool
	OptedOut   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Student is a child whose foundational gaps are being diagnosed.
type Student struct {
	ID         string
	GuardianID string
	EducatorID string
	Name       string
	EntryGrade string // e.g. "B3"
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// School is reference data used during educator onboarding.
type School struct {
	ID             string
	Name           string
	InvitationCode string
}

// GradeNumber parses the numeric suffix of a grade code like "B3".
// Returns a ValidationError for anything it cannot parse.
func GradeNumber(grade string) (int, error) {
	g := strings.TrimSpace(grade)
	if len(g) < 2 {
		return 0, &ValidationError{Field: "grade", Value: grade, Err: fmt.Errorf("too short")}
	}
	n, err := strconv.Atoi(g[1:])
	if err != nil {
		return 0, &ValidationError{Field: "grade", Value: grade, Err: err}
	}
	if n < 1 || n > 9 {
		return 0, &ValidationError{Field: "grade", Value: grade, Err: fmt.Errorf("out of range")}
	}
	return n, nil
}
