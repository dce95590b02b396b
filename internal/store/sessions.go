package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sankofa-learn/sankofa/internal/domain"
	"github.com/sankofa-learn/sankofa/internal/engine"
)

// SaveSession upserts a diagnostic session. Node lists are stored as
// JSON arrays so insertion order survives the round trip.
func (s *Store) SaveSession(ctx context.Context, sess *engine.Session) error {
	tested, _ := json.Marshal(orEmpty(sess.NodesTested))
	mastered, _ := json.Marshal(orEmpty(sess.NodesMastered))
	gaps, _ := json.Marshal(orEmpty(sess.NodesGap))

	var completedAt any
	if !sess.CompletedAt.IsZero() {
		completedAt = sess.CompletedAt
	}
	lastActivity := sess.LastActivityAt
	if lastActivity.IsZero() {
		lastActivity = sess.StartedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO diagnostic_sessions
			(id, student_id, status, entry_grade, nodes_tested, nodes_mastered, nodes_gap,
			 root_gap_node, root_gap_confidence, cascade_name, total_questions, correct_answers,
			 started_at, last_activity_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			nodes_tested = excluded.nodes_tested,
			nodes_mastered = excluded.nodes_mastered,
			nodes_gap = excluded.nodes_gap,
			root_gap_node = excluded.root_gap_node,
			root_gap_confidence = excluded.root_gap_confidence,
			cascade_name = excluded.cascade_name,
			total_questions = excluded.total_questions,
			correct_answers = excluded.correct_answers,
			last_activity_at = excluded.last_activity_at,
			completed_at = excluded.completed_at`,
		sess.ID, sess.StudentID, string(sess.Status), sess.EntryGrade,
		string(tested), string(mastered), string(gaps),
		sess.RootGapNode, sess.RootGapConfidence, sess.CascadeName,
		sess.TotalQuestions, sess.CorrectAnswers, sess.StartedAt, lastActivity, completedAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Session loads a diagnostic session by ID.
func (s *Store) Session(ctx context.Context, id string) (*engine.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, student_id, status, entry_grade, nodes_tested, nodes_mastered, nodes_gap,
		       root_gap_node, root_gap_confidence, cascade_name, total_questions, correct_answers,
		       started_at, last_activity_at, completed_at
		FROM diagnostic_sessions WHERE id = ?`, id)

	sess := &engine.Session{}
	var status, tested, mastered, gaps string
	var completedAt sql.NullTime

	err := row.Scan(&sess.ID, &sess.StudentID, &status, &sess.EntryGrade,
		&tested, &mastered, &gaps,
		&sess.RootGapNode, &sess.RootGapConfidence, &sess.CascadeName,
		&sess.TotalQuestions, &sess.CorrectAnswers, &sess.StartedAt, &sess.LastActivityAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "session", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess.Status = engine.Status(status)
	if completedAt.Valid {
		sess.CompletedAt = completedAt.Time
	}
	if err := json.Unmarshal([]byte(tested), &sess.NodesTested); err != nil {
		return nil, fmt.Errorf("decode nodes_tested: %w", err)
	}
	if err := json.Unmarshal([]byte(mastered), &sess.NodesMastered); err != nil {
		return nil, fmt.Errorf("decode nodes_mastered: %w", err)
	}
	if err := json.Unmarshal([]byte(gaps), &sess.NodesGap); err != nil {
		return nil, fmt.Errorf("decode nodes_gap: %w", err)
	}
	return sess, nil
}

// AbandonedSession describes a session the stale sweep timed out, with
// enough actor context to send a re-engagement message.
type AbandonedSession struct {
	SessionID   string
	StudentName string
	ActorName   string
	ChatID      int64
	Kind        domain.ActorKind

	// OptedOut suppresses re-engagement; the session still times out.
	OptedOut bool
}

// AbandonStale marks open sessions with no activity since cutoff as
// timed out and returns them, so the caller can nudge the chats that
// went quiet. Staleness is judged on last activity, not session age: a
// slow but live diagnostic is never abandoned mid-conversation.
func (s *Store) AbandonStale(ctx context.Context, cutoff time.Time) ([]AbandonedSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("abandon stale sessions: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT ds.id, COALESCE(st.name, ''),
		       COALESCE(g.name, e.name, ''),
		       COALESCE(g.chat_id, e.chat_id, 0),
		       CASE WHEN g.id IS NOT NULL THEN 'guardian' ELSE 'educator' END,
		       COALESCE(g.opted_out, e.opted_out, 0)
		FROM diagnostic_sessions ds
		LEFT JOIN students st ON st.id = ds.student_id
		LEFT JOIN guardians g ON g.id = st.guardian_id AND st.guardian_id != ''
		LEFT JOIN educators e ON e.id = st.educator_id AND st.educator_id != ''
		WHERE ds.status IN (?, ?) AND ds.last_activity_at < ?`,
		string(engine.StatusPending), string(engine.StatusInProgress), cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale sessions: %w", err)
	}
	var stale []AbandonedSession
	for rows.Next() {
		var a AbandonedSession
		var kind string
		if err := rows.Scan(&a.SessionID, &a.StudentName, &a.ActorName, &a.ChatID, &kind, &a.OptedOut); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stale session: %w", err)
		}
		a.Kind = domain.ActorKind(kind)
		stale = append(stale, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stale sessions: %w", err)
	}
	if len(stale) == 0 {
		return nil, tx.Commit()
	}

	now := time.Now().UTC()
	for _, a := range stale {
		if _, err := tx.ExecContext(ctx, `
			UPDATE diagnostic_sessions SET status = ?, completed_at = ? WHERE id = ?`,
			string(engine.StatusTimedOut), now, a.SessionID); err != nil {
			return nil, fmt.Errorf("abandon session %s: %w", a.SessionID, err)
		}
	}
	return stale, tx.Commit()
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
