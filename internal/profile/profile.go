// Package profile synthesizes the final gap profile once a diagnostic
// session ends.
package profile

import (
	"time"

	"github.com/google/uuid"
	"github.com/sankofa-learn/sankofa/internal/curriculum"
	"github.com/sankofa-learn/sankofa/internal/domain"
	"github.com/sankofa-learn/sankofa/internal/engine"
)

// GapProfile is the versioned snapshot of a student's diagnosed state.
// At most one profile per student is current; superseding a profile
// deactivates the prior one.
type GapProfile struct {
	ID        string
	StudentID string
	SessionID string

	NodesMastered  []string
	NodesGap       []string
	NodesUncertain []string

	PrimaryGapNode string

	// EstimatedGradeLevel is the highest grade with mastered material.
	EstimatedGradeLevel string

	// GradeGap is entry grade minus estimated grade, never negative.
	GradeGap int

	OverallConfidence float64

	// PrimaryCascade names the failure pattern containing the primary
	// gap, when one matches.
	PrimaryCascade string

	// Narrative is the model-written summary, empty when the
	// completion service was unavailable.
	Narrative string

	// Recommendation is always present: the narrative recommendation
	// when available, otherwise the rule-based one.
	Recommendation string

	IsCurrent bool
	CreatedAt time.Time
}

// QARecord is one question/answer exchange kept for the narrative.
type QARecord struct {
	NodeCode  string
	Question  string
	Answer    string
	IsCorrect bool
}

// Synthesize computes the deterministic part of a profile from a
// finished session. Narrative enrichment is layered on separately.
func Synthesize(g *curriculum.Graph, s *engine.Session, now time.Time) *GapProfile {
	p := &GapProfile{
		ID:            uuid.NewString(),
		StudentID:     s.StudentID,
		SessionID:     s.ID,
		NodesMastered: append([]string(nil), s.NodesMastered...),
		NodesGap:      append([]string(nil), s.NodesGap...),
		IsCurrent:     true,
		CreatedAt:     now,
	}

	// Uncertain: probed but never settled either way.
	seen := map[string]bool{}
	for _, code := range s.NodesTested {
		if seen[code] || s.Mastered(code) || s.Gap(code) {
			continue
		}
		seen[code] = true
		p.NodesUncertain = append(p.NodesUncertain, code)
	}

	p.PrimaryGapNode = primaryGap(g, s)
	p.EstimatedGradeLevel = EstimateGradeLevel(g, s.NodesMastered)
	p.GradeGap = gradeGap(s.EntryGrade, p.EstimatedGradeLevel)
	p.OverallConfidence = overallConfidence(s)

	if p.PrimaryGapNode != "" {
		if c, ok := g.CascadeContaining(p.PrimaryGapNode); ok {
			p.PrimaryCascade = c.Name
		}
	}

	return p
}

// primaryGap is the session's root gap, else the highest-severity
// member of the gap set, else none.
func primaryGap(g *curriculum.Graph, s *engine.Session) string {
	if s.RootGapNode != "" {
		return s.RootGapNode
	}
	best := ""
	bestSev := -1
	for _, code := range s.NodesGap {
		n, err := g.Node(code)
		if err != nil {
			continue
		}
		if n.Severity > bestSev {
			best = code
			bestSev = n.Severity
		}
	}
	return best
}

// EstimateGradeLevel returns the highest grade among mastered nodes,
// comparing numeric grade suffixes. An empty mastered set estimates the
// lowest grade in the curriculum.
func EstimateGradeLevel(g *curriculum.Graph, mastered []string) string {
	best := ""
	bestNum := -1
	for _, code := range mastered {
		n, err := g.Node(code)
		if err != nil {
			continue
		}
		if num, ok := gradeNumber(n.Grade); ok && num > bestNum {
			best = n.Grade
			bestNum = num
		}
	}
	if best == "" {
		return g.LowestGrade()
	}
	return best
}

func gradeGap(entry, estimated string) int {
	en, okE := gradeNumber(entry)
	mn, okM := gradeNumber(estimated)
	if !okE || !okM {
		return 0
	}
	if gap := en - mn; gap > 0 {
		return gap
	}
	return 0
}

func gradeNumber(grade string) (int, bool) {
	n, err := domain.GradeNumber(grade)
	return n, err == nil
}

// overallConfidence: 0.5 base, question-count bonus, root gap bonus,
// capped at 0.95.
func overallConfidence(s *engine.Session) float64 {
	conf := 0.5
	switch {
	case s.TotalQuestions >= 12:
		conf += 0.2
	case s.TotalQuestions >= 8:
		conf += 0.1
	}
	if s.RootGapNode != "" {
		conf += 0.2
	}
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}
