package models

import "time"

// SlackChannelDisabled as a channel name turns Slack notifications off for a project.
const SlackChannelDisabled = "-"

type Project struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Identifier     string    `json:"identifier" db:"identifier"`
	ParentID       *int64    `json:"parent_id,omitempty" db:"parent_id"`
	WebhookURL     string    `json:"webhook_url" db:"webhook_url"` // Google Chat
	SlackURL       string    `json:"slack_url" db:"slack_url"`
	SlackChannel   string    `json:"slack_channel" db:"slack_channel"`
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty" db:"telegram_chat_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

func (p *Project) String() string {
	return p.Name
}
