package channel

import (
	"context"
	"fmt"
	"sync"
)

// SentKind distinguishes recorded outbound messages.
type SentKind string

const (
	SentText     SentKind = "text"
	SentButtons  SentKind = "buttons"
	SentList     SentKind = "list"
	SentTemplate SentKind = "template"
)

// Sent is one recorded outbound message.
type Sent struct {
	Kind     SentKind
	ChatID   int64
	Text     string
	Buttons  []Button
	Sections []ListSection
	Template string
	Params   []string
}

// Recorder is a Messenger that records every send. It backs the
// simulator and the flow tests. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	next int

	// FailWith, when set, makes every send return it.
	FailWith error
}

var _ Messenger = (*Recorder)(nil)

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) record(s Sent) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return "", r.FailWith
	}
	r.next++
	r.sent = append(r.sent, s)
	return fmt.Sprintf("rec-%d", r.next), nil
}

func (r *Recorder) SendText(ctx context.Context, chatID int64, text string) (string, error) {
	return r.record(Sent{Kind: SentText, ChatID: chatID, Text: text})
}

func (r *Recorder) SendButtons(ctx context.Context, chatID int64, text string, buttons []Button) (string, error) {
	if len(buttons) > MaxButtons {
		return "", limitError("buttons", fmt.Sprintf("%d > %d", len(buttons), MaxButtons))
	}
	return r.record(Sent{Kind: SentButtons, ChatID: chatID, Text: text, Buttons: buttons})
}

func (r *Recorder) SendList(ctx context.Context, chatID int64, text, buttonLabel string, sections []ListSection) (string, error) {
	if n := countRows(sections); n > MaxListRows {
		return "", limitError("list rows", fmt.Sprintf("%d > %d", n, MaxListRows))
	}
	return r.record(Sent{Kind: SentList, ChatID: chatID, Text: text, Sections: sections})
}

func (r *Recorder) SendTemplate(ctx context.Context, chatID int64, name string, params []string) (string, error) {
	return r.record(Sent{Kind: SentTemplate, ChatID: chatID, Template: name, Params: params})
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Last returns the most recent message, or false when nothing was sent.
func (r *Recorder) Last() (Sent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Sent{}, false
	}
	return r.sent[len(r.sent)-1], true
}

// Reset discards recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
