package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hapo/redmine-reminder/internal/config"
	"github.com/hapo/redmine-reminder/internal/models"
)

var ErrNoWebhook = errors.New("project has no webhook configured")

// IssueLookup resolves the issue a reminder links to.
type IssueLookup interface {
	GetByID(ctx context.Context, issueID int64) (*models.Issue, error)
}

// Mirror receives a copy of every delivered reminder. Mirror failures never
// fail a dispatch.
type Mirror interface {
	Mirror(ctx context.Context, chatID int64, markdown string) error
}

// Dispatcher renders reminders and delivers them to the project webhook.
type Dispatcher struct {
	settings config.Settings
	issues   IssueLookup
	sink     Sink
	mirror   Mirror
	logger   *slog.Logger
}

func NewDispatcher(settings config.Settings, issues IssueLookup, sink Sink, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		settings: settings,
		issues:   issues,
		sink:     sink,
		logger:   logger,
	}
}

// WithMirror adds a best-effort copy sink, used for projects with a Telegram chat.
func (d *Dispatcher) WithMirror(m Mirror) *Dispatcher {
	d.mirror = m
	return d
}

// Render builds the message for r as seen from loc.
func (d *Dispatcher) Render(ctx context.Context, project *models.Project, r *models.Reminder, loc *time.Location) *Message {
	msg := &Message{
		Project: project.Name,
		Content: r.Content,
		Time:    r.FormattedSendDate() + " " + r.LocalSendTime(loc),
	}
	if r.IsRecurring {
		msg.Repeat = r.RecurringType.Label()
		msg.Days = r.CustomDaysText()
	}

	if r.IssueID != nil && d.issues != nil {
		issue, err := d.issues.GetByID(ctx, *r.IssueID)
		if err != nil {
			d.logger.WarnContext(ctx, "issue lookup failed, sending without issue link",
				"reminder_id", r.ID, "issue_id", *r.IssueID, "error", err)
		} else {
			msg.Issue = fmt.Sprintf("#%d: %s", issue.ID, issue.Subject)
			msg.IssueURL = d.settings.IssueURL(issue.ID)
		}
	}
	return msg
}

// Dispatch delivers one reminder. A nil error means the webhook accepted it.
func (d *Dispatcher) Dispatch(ctx context.Context, project *models.Project, r *models.Reminder, loc *time.Location) error {
	if project.WebhookURL == "" {
		return ErrNoWebhook
	}

	msg := d.Render(ctx, project, r, loc)
	if err := d.sink.Send(ctx, project.WebhookURL, msg.GoogleChat()); err != nil {
		return fmt.Errorf("failed to send reminder %d: %w", r.ID, err)
	}

	if d.mirror != nil && project.TelegramChatID != nil {
		if err := d.mirror.Mirror(ctx, *project.TelegramChatID, msg.Markdown()); err != nil {
			d.logger.WarnContext(ctx, "telegram mirror failed",
				"reminder_id", r.ID, "chat_id", *project.TelegramChatID, "error", err)
		}
	}
	return nil
}
