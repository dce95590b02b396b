package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sankofa-learn/sankofa/internal/analysis"
	"github.com/sankofa-learn/sankofa/internal/llm"
)

// AppendLLMRequest satisfies llm.EventSink.
func (s *Store) AppendLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_request_events
			(provider, model, purpose, input_tokens, output_tokens, latency_ms,
			 success, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Provider, ev.Model, ev.Purpose, ev.InputTokens, ev.OutputTokens,
		ev.LatencyMs, ev.Success, ev.ErrorMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append llm event: %w", err)
	}
	return nil
}

// AppendAnswer records one graded answer within a session.
func (s *Store) AppendAnswer(ctx context.Context, sessionID, nodeCode, question, answer string, res *analysis.Result, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO answer_events
			(session_id, node_code, question, answer, is_correct, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, nodeCode, question, answer, res.IsCorrect, string(res.Source), now)
	if err != nil {
		return fmt.Errorf("append answer event: %w", err)
	}
	return nil
}

// AnswerRecord is one graded answer loaded back for narrative
// synthesis or inspection.
type AnswerRecord struct {
	NodeCode  string
	Question  string
	Answer    string
	IsCorrect bool
	Source    string
	CreatedAt time.Time
}

// AnswersBySession returns the answer history of a session in the
// order it was recorded.
func (s *Store) AnswersBySession(ctx context.Context, sessionID string) ([]AnswerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node_code, question, answer, is_correct, source, created_at
		FROM answer_events WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	var out []AnswerRecord
	for rows.Next() {
		var r AnswerRecord
		if err := rows.Scan(&r.NodeCode, &r.Question, &r.Answer, &r.IsCorrect, &r.Source, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UsageStats aggregates completion traffic for the stats command.
type UsageStats struct {
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
}

// LLMUsage returns aggregate completion usage since the cutoff.
func (s *Store) LLMUsage(ctx context.Context, since time.Time) (*UsageStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(input_tokens), 0),
		       COALESCE(SUM(output_tokens), 0)
		FROM llm_request_events WHERE created_at >= ?`, since)

	st := &UsageStats{}
	if err := row.Scan(&st.Requests, &st.Failures, &st.InputTokens, &st.OutputTokens); err != nil {
		return nil, fmt.Errorf("load llm usage: %w", err)
	}
	return st, nil
}
