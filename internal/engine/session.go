package engine

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a diagnostic session.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
	StatusTimedOut   Status = "timed_out"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned || s == StatusTimedOut
}

// Session is the mutable record of one diagnostic run. It is created
// when a guardian or educator initiates a diagnostic and mutated only
// by the engine.
type Session struct {
	ID        string
	StudentID string
	Status    Status

	// EntryGrade is the grade the student is enrolled in, e.g. "B3".
	EntryGrade string

	// NodesTested is the ordered list of node codes probed, one entry
	// per question asked. Its length never exceeds MaxQuestions.
	NodesTested []string

	// NodesMastered and NodesGap are disjoint sets kept in insertion
	// order so severity tie-breaks are stable.
	NodesMastered []string
	NodesGap      []string

	// RootGapNode is the highest-severity unresolved gap so far.
	RootGapNode       string
	RootGapConfidence float64

	// CascadeName references the failure pattern matched at completion.
	CascadeName string

	TotalQuestions int
	CorrectAnswers int

	StartedAt time.Time

	// LastActivityAt is stamped on every answer, so staleness is judged
	// by silence rather than session age.
	LastActivityAt time.Time

	CompletedAt time.Time
}

// NewSession creates a pending session for a student.
func NewSession(studentID, entryGrade string, now time.Time) *Session {
	return &Session{
		ID:             uuid.NewString(),
		StudentID:      studentID,
		Status:         StatusPending,
		EntryGrade:     entryGrade,
		StartedAt:      now,
		LastActivityAt: now,
	}
}

// TestedCount returns how many times a node has been probed.
func (s *Session) TestedCount(code string) int {
	n := 0
	for _, c := range s.NodesTested {
		if c == code {
			n++
		}
	}
	return n
}

// Tested reports whether a node has been probed at least once.
func (s *Session) Tested(code string) bool {
	return slices.Contains(s.NodesTested, code)
}

// Mastered reports set membership in NodesMastered.
func (s *Session) Mastered(code string) bool {
	return slices.Contains(s.NodesMastered, code)
}

// Gap reports set membership in NodesGap.
func (s *Session) Gap(code string) bool {
	return slices.Contains(s.NodesGap, code)
}

func (s *Session) addMastered(code string) {
	if !s.Mastered(code) {
		s.NodesMastered = append(s.NodesMastered, code)
	}
	s.removeGap(code)
}

func (s *Session) addGap(code string) {
	if !s.Gap(code) {
		s.NodesGap = append(s.NodesGap, code)
	}
}

func (s *Session) removeGap(code string) {
	s.NodesGap = slices.DeleteFunc(s.NodesGap, func(c string) bool { return c == code })
}
