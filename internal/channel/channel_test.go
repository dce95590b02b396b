package channel

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sankofa-learn/sankofa/internal/domain"
)

func TestRecorder_EnforcesButtonLimit(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	ok := []Button{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}, {ID: "c", Label: "C"}}
	if _, err := r.SendButtons(ctx, 1, "pick", ok); err != nil {
		t.Fatalf("three buttons must pass: %v", err)
	}

	over := append(ok, Button{ID: "d", Label: "D"})
	_, err := r.SendButtons(ctx, 1, "pick", over)
	if !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if got := len(r.Messages()); got != 1 {
		t.Fatalf("rejected send must not record, got %d messages", got)
	}
}

func TestRecorder_EnforcesListRowLimitAcrossSections(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	rows := func(n int) []ListRow {
		out := make([]ListRow, n)
		for i := range out {
			out[i] = ListRow{ID: "r", Title: "row"}
		}
		return out
	}

	sections := []ListSection{{Title: "a", Rows: rows(6)}, {Title: "b", Rows: rows(4)}}
	if _, err := r.SendList(ctx, 1, "choose", "Go", sections); err != nil {
		t.Fatalf("ten rows must pass: %v", err)
	}

	sections[1].Rows = rows(5)
	_, err := r.SendList(ctx, 1, "choose", "Go", sections)
	if !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded for 11 rows, got %v", err)
	}
}

func TestNormalize_ToleratesMissingSender(t *testing.T) {
	// Channel posts carry no From user.
	u := tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: 5},
		Text:      "hello",
	}}
	in, ok := normalize(u)
	if !ok {
		t.Fatal("text update must normalize")
	}
	if in.SenderName != "" || in.Text != "hello" || in.ChatID != 5 {
		t.Fatalf("unexpected inbound: %+v", in)
	}

	u = tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 8,
		Chat:      &tgbotapi.Chat{ID: 5},
	}}
	in, ok = normalize(u)
	if !ok || in.Kind != InboundOther {
		t.Fatalf("media update must normalize as other: %+v", in)
	}
}

func TestRenderTemplate(t *testing.T) {
	text, err := renderTemplate(messageTemplates, "diagnostic_ready", []string{"Abena", "Kojo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "Hello Abena! The numeracy check-up for Kojo is still waiting. Reply START to pick it back up."; text != want {
		t.Fatalf("unexpected text: %q", text)
	}

	_, err = renderTemplate(messageTemplates, "no-such-template", nil)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError for unknown template, got %v", err)
	}
}

func TestRecorder_IDsAreSequential(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	id1, err := r.SendText(ctx, 1, "one")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := r.SendText(ctx, 1, "two")
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Fatalf("message IDs must be distinct: %s", id1)
	}

	last, ok := r.Last()
	if !ok || last.Text != "two" {
		t.Fatalf("unexpected last message: %+v", last)
	}
}
