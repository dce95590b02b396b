package channel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sankofa-learn/sankofa/internal/domain"
)

// Telegram adapts the bot API to the Messenger contract. Buttons map to
// inline keyboards; the list message has no native telegram equivalent,
// so rows render as a numbered keyboard; template messages render as
// plain text from a local table.
type Telegram struct {
	api       *tgbotapi.BotAPI
	templates map[string]string
}

var _ Messenger = (*Telegram)(nil)

// NewTelegram connects to the bot API with the given token.
func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "messaging", Err: err}
	}
	return &Telegram{api: api, templates: messageTemplates}, nil
}

// messageTemplates are the pre-approved re-engagement texts, sent when
// the service opens a conversation rather than replying inside one.
// Telegram has no template approval process, so these are canned
// strings with %s slots.
var messageTemplates = map[string]string{
	"diagnostic_ready": "Hello %s! The numeracy check-up for %s is still waiting. Reply START to pick it back up.",
}

// renderTemplate fills a named template. Unknown names come back as
// NotFoundError so a typo surfaces instead of sending garbage.
func renderTemplate(templates map[string]string, name string, params []string) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", &domain.NotFoundError{Kind: "message template", ID: name}
	}
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p
	}
	return fmt.Sprintf(tmpl, args...), nil
}

func (t *Telegram) send(c tgbotapi.Chattable) (string, error) {
	sent, err := t.api.Send(c)
	if err != nil {
		return "", &domain.ExternalServiceError{Service: "messaging", Err: err}
	}
	return strconv.Itoa(sent.MessageID), nil
}

func (t *Telegram) SendText(ctx context.Context, chatID int64, text string) (string, error) {
	return t.send(tgbotapi.NewMessage(chatID, text))
}

func (t *Telegram) SendButtons(ctx context.Context, chatID int64, text string, buttons []Button) (string, error) {
	if len(buttons) > MaxButtons {
		return "", limitError("buttons", fmt.Sprintf("%d > %d", len(buttons), MaxButtons))
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, b := range buttons {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(b.Label, b.ID),
		})
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return t.send(msg)
}

func (t *Telegram) SendList(ctx context.Context, chatID int64, text, buttonLabel string, sections []ListSection) (string, error) {
	if n := countRows(sections); n > MaxListRows {
		return "", limitError("list rows", fmt.Sprintf("%d > %d", n, MaxListRows))
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	var body strings.Builder
	body.WriteString(text)
	for _, sec := range sections {
		if sec.Title != "" {
			body.WriteString("\n\n" + sec.Title)
		}
		for _, row := range sec.Rows {
			label := row.Title
			if row.Description != "" {
				body.WriteString(fmt.Sprintf("\n%s — %s", row.Title, row.Description))
			}
			rows = append(rows, []tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData(label, row.ID),
			})
		}
	}
	msg := tgbotapi.NewMessage(chatID, body.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return t.send(msg)
}

func (t *Telegram) SendTemplate(ctx context.Context, chatID int64, name string, params []string) (string, error) {
	text, err := renderTemplate(t.templates, name, params)
	if err != nil {
		return "", err
	}
	return t.send(tgbotapi.NewMessage(chatID, text))
}

// Updates returns the long-poll update channel, normalized to Inbound.
// The caller owns the loop and cancels by closing via StopReceivingUpdates.
func (t *Telegram) Updates(offset, timeout int) <-chan Inbound {
	u := tgbotapi.NewUpdate(offset)
	u.Timeout = timeout
	raw := t.api.GetUpdatesChan(u)

	out := make(chan Inbound)
	go func() {
		defer close(out)
		for update := range raw {
			if in, ok := normalize(update); ok {
				out <- in
			}
		}
	}()
	return out
}

// Stop shuts down the update channel.
func (t *Telegram) Stop() { t.api.StopReceivingUpdates() }

func normalize(u tgbotapi.Update) (Inbound, bool) {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return Inbound{
			MessageID:  strconv.Itoa(u.CallbackQuery.Message.MessageID) + ":" + u.CallbackQuery.ID,
			ChatID:     u.CallbackQuery.Message.Chat.ID,
			Kind:       InboundButton,
			Text:       u.CallbackQuery.Data,
			SenderName: senderName(u.CallbackQuery.From),
		}, true
	case u.Message != nil && u.Message.Text != "":
		return Inbound{
			MessageID:  strconv.Itoa(u.Message.MessageID),
			ChatID:     u.Message.Chat.ID,
			Kind:       InboundText,
			Text:       u.Message.Text,
			SenderName: senderName(u.Message.From),
		}, true
	case u.Message != nil:
		// Photos, stickers, voice notes: the flow re-prompts.
		return Inbound{
			MessageID:  strconv.Itoa(u.Message.MessageID),
			ChatID:     u.Message.Chat.ID,
			Kind:       InboundOther,
			SenderName: senderName(u.Message.From),
		}, true
	}
	return Inbound{}, false
}

// senderName tolerates updates without a sender, such as channel posts.
func senderName(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	return from.FirstName
}
