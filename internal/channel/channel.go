// Package channel abstracts the outbound messaging surface. The flow
// executor talks to a Messenger; telegram is the shipped adapter and a
// recorder backs the simulator and tests.
package channel

import (
	"context"

	"github.com/sankofa-learn/sankofa/internal/domain"
)

const (
	// MaxButtons is the platform ceiling on interactive buttons per
	// message.
	MaxButtons = 3
	// MaxListRows is the ceiling on interactive list rows across all
	// sections.
	MaxListRows = 10
)

// Button is one tappable reply option.
type Button struct {
	ID    string
	Label string
}

// ListRow is one row of an interactive list message.
type ListRow struct {
	ID          string
	Title       string
	Description string
}

// ListSection groups rows under a heading.
type ListSection struct {
	Title string
	Rows  []ListRow
}

// Messenger sends outbound messages to one chat. Every method returns
// the platform's opaque message identifier. Transport failures come
// back as *domain.ExternalServiceError.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) (string, error)
	SendButtons(ctx context.Context, chatID int64, text string, buttons []Button) (string, error)
	SendList(ctx context.Context, chatID int64, text, buttonLabel string, sections []ListSection) (string, error)
	SendTemplate(ctx context.Context, chatID int64, name string, params []string) (string, error)
}

// InboundKind says what shape the inbound payload has.
type InboundKind string

const (
	InboundText   InboundKind = "text"
	InboundButton InboundKind = "button"
	InboundOther  InboundKind = "other"
)

// Inbound is one normalized message arriving from the platform.
type Inbound struct {
	MessageID string
	ChatID    int64
	Kind      InboundKind

	// Text carries free text for InboundText and the selected option
	// ID for InboundButton. Empty for InboundOther.
	Text string

	// SenderName is the platform display name, used to prefill actor
	// records on first contact.
	SenderName string
}

func countRows(sections []ListSection) int {
	n := 0
	for _, s := range sections {
		n += len(s.Rows)
	}
	return n
}

func limitError(op, detail string) error {
	return &domain.ValidationError{Field: op, Value: detail, Err: domain.ErrLimitExceeded}
}
