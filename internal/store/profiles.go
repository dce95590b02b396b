package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sankofa-learn/sankofa/internal/domain"
	"github.com/sankofa-learn/sankofa/internal/profile"
)

// SaveCurrentProfile stores a new gap profile as the student's current
// one. The prior current profile is deactivated in the same
// transaction, so the one-current-per-student invariant holds even
// under concurrent session completions.
func (s *Store) SaveCurrentProfile(ctx context.Context, p *profile.GapProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profile tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE gap_profiles SET is_current = 0 WHERE student_id = ? AND is_current = 1`,
		p.StudentID); err != nil {
		return fmt.Errorf("deactivate prior profile: %w", err)
	}

	mastered, _ := json.Marshal(orEmpty(p.NodesMastered))
	gaps, _ := json.Marshal(orEmpty(p.NodesGap))
	uncertain, _ := json.Marshal(orEmpty(p.NodesUncertain))

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO gap_profiles
			(id, student_id, session_id, nodes_mastered, nodes_gap, nodes_uncertain,
			 primary_gap_node, estimated_grade_level, grade_gap, overall_confidence,
			 primary_cascade, narrative, recommendation, is_current, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		p.ID, p.StudentID, p.SessionID, string(mastered), string(gaps), string(uncertain),
		p.PrimaryGapNode, p.EstimatedGradeLevel, p.GradeGap, p.OverallConfidence,
		p.PrimaryCascade, p.Narrative, p.Recommendation, p.CreatedAt); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile tx: %w", err)
	}
	p.IsCurrent = true
	return nil
}

// CurrentProfile returns the student's current gap profile.
func (s *Store) CurrentProfile(ctx context.Context, studentID string) (*profile.GapProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, session_id, nodes_mastered, nodes_gap, nodes_uncertain,
		       primary_gap_node, estimated_grade_level, grade_gap, overall_confidence,
		       primary_cascade, narrative, recommendation, is_current, created_at
		FROM gap_profiles WHERE student_id = ? AND is_current = 1`, studentID)

	p := &profile.GapProfile{}
	var mastered, gaps, uncertain string
	err := row.Scan(&p.ID, &p.StudentID, &p.SessionID, &mastered, &gaps, &uncertain,
		&p.PrimaryGapNode, &p.EstimatedGradeLevel, &p.GradeGap, &p.OverallConfidence,
		&p.PrimaryCascade, &p.Narrative, &p.Recommendation, &p.IsCurrent, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "gap profile", ID: studentID}
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if err := json.Unmarshal([]byte(mastered), &p.NodesMastered); err != nil {
		return nil, fmt.Errorf("decode nodes_mastered: %w", err)
	}
	if err := json.Unmarshal([]byte(gaps), &p.NodesGap); err != nil {
		return nil, fmt.Errorf("decode nodes_gap: %w", err)
	}
	if err := json.Unmarshal([]byte(uncertain), &p.NodesUncertain); err != nil {
		return nil, fmt.Errorf("decode nodes_uncertain: %w", err)
	}
	return p, nil
}

// CurrentProfileCount returns how many current profiles a student has.
// Used by tests to assert the invariant.
func (s *Store) CurrentProfileCount(ctx context.Context, studentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM gap_profiles WHERE student_id = ? AND is_current = 1`,
		studentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count current profiles: %w", err)
	}
	return n, nil
}
