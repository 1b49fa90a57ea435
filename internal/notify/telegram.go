package notify

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hapo/redmine-reminder/internal/format"
)

// Telegram mirrors reminders into a project's Telegram chat.
type Telegram struct {
	api *tgbotapi.BotAPI
}

// NewTelegram connects to the Bot API. endpoint is tgbotapi.APIEndpoint
// outside of tests.
func NewTelegram(token, endpoint string, client *http.Client) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram API: %w", err)
	}
	return &Telegram{api: api}, nil
}

func (t *Telegram) Mirror(_ context.Context, chatID int64, markdown string) error {
	parsed := format.ParseMarkdown(markdown)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities
	msg.DisableWebPagePreview = true

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
