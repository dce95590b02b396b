package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sankofa-learn/sankofa/internal/domain"
)

// ConversationRecord is the persisted form of a conversation state.
// The flow package owns the typed step representation; the store only
// sees flow/step names plus an opaque JSON payload.
type ConversationRecord struct {
	ActorKind domain.ActorKind
	ChatID    int64
	Flow      string
	Step      string
	Data      string
	UpdatedAt time.Time
}

// Conversation loads the state for one chat, or NotFoundError when the
// chat has no active conversation.
func (s *Store) Conversation(ctx context.Context, kind domain.ActorKind, chatID int64) (*ConversationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT actor_kind, chat_id, flow, step, data, updated_at
		FROM conversation_states WHERE actor_kind = ? AND chat_id = ?`,
		string(kind), chatID)

	rec := &ConversationRecord{}
	var kindStr string
	err := row.Scan(&kindStr, &rec.ChatID, &rec.Flow, &rec.Step, &rec.Data, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "conversation", ID: fmt.Sprintf("%s/%d", kind, chatID)}
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	rec.ActorKind = domain.ActorKind(kindStr)
	return rec, nil
}

// PutConversation upserts the conversation state for a chat.
func (s *Store) PutConversation(ctx context.Context, rec *ConversationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_states (actor_kind, chat_id, flow, step, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(actor_kind, chat_id) DO UPDATE SET
			flow = excluded.flow,
			step = excluded.step,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		string(rec.ActorKind), rec.ChatID, rec.Flow, rec.Step, rec.Data, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// ClearConversation removes the state for a chat. Clearing a chat with
// no state is not an error.
func (s *Store) ClearConversation(ctx context.Context, kind domain.ActorKind, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM conversation_states WHERE actor_kind = ? AND chat_id = ?`,
		string(kind), chatID)
	if err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	return nil
}

// MarkSeen records an inbound message ID for duplicate detection.
// Returns true when the message was not seen before.
func (s *Store) MarkSeen(ctx context.Context, kind domain.ActorKind, chatID int64, messageID string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO seen_messages (actor_kind, chat_id, message_id, seen_at)
		VALUES (?, ?, ?, ?)`,
		string(kind), chatID, messageID, now)
	if err != nil {
		return false, fmt.Errorf("mark message seen: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark message seen: %w", err)
	}
	return n > 0, nil
}

// PruneSeen deletes dedup records older than the cutoff.
func (s *Store) PruneSeen(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM seen_messages WHERE seen_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune seen messages: %w", err)
	}
	return res.RowsAffected()
}
