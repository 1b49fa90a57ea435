package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hapo/redmine-reminder/internal/models"
	"github.com/hapo/redmine-reminder/internal/recurrence"
)

type SendDateUpdater interface {
	UpdateSendDate(ctx context.Context, reminderID int64, sendDate models.Date, sentAt time.Time) error
}

// Advancer moves a delivered reminder to its next send date.
type Advancer struct {
	store  SendDateUpdater
	logger *slog.Logger
}

func NewAdvancer(store SendDateUpdater, logger *slog.Logger) *Advancer {
	return &Advancer{store: store, logger: logger}
}

// Advance must only be called after a confirmed delivery. Recurring
// reminders get their next occurrence as send date; one-off reminders keep
// theirs. Both record sentAt. The new send date is also written to r.
//
// The next occurrence is counted from the local date of sentAt, or from r's
// send date when that is later, so advancing twice in one day moves the
// reminder two occurrences ahead.
func (a *Advancer) Advance(ctx context.Context, r *models.Reminder, loc *time.Location, sentAt time.Time) error {
	sendDate := r.SendDate
	if r.IsRecurring {
		from := models.DateOf(sentAt.In(loc))
		if r.SendDate.After(from) {
			from = r.SendDate
		}
		if next, ok := recurrence.NextOccurrence(r, from); ok {
			sendDate = next
		}
	}

	if err := a.store.UpdateSendDate(ctx, r.ID, sendDate, sentAt); err != nil {
		return fmt.Errorf("failed to advance reminder %d: %w", r.ID, err)
	}

	if sendDate != r.SendDate {
		a.logger.InfoContext(ctx, "updated next send date",
			"reminder_id", r.ID, "send_date", sendDate.String())
	}
	r.SendDate = sendDate
	sent := sentAt.UTC()
	r.LastSentAt = &sent
	return nil
}
