package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hapo/redmine-reminder/internal/models"
	"github.com/hapo/redmine-reminder/internal/recurrence"
	"github.com/hapo/redmine-reminder/internal/timezone"
)

type ProjectLister interface {
	ListWithWebhook(ctx context.Context) ([]*models.Project, error)
}

type ReminderLister interface {
	ListActiveByProject(ctx context.Context, projectID int64) ([]*models.Reminder, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, userID int64) (*models.User, error)
}

// Candidate is a reminder selected to fire, with the zone it was matched in.
type Candidate struct {
	Project  *models.Project
	Reminder *models.Reminder
	Timezone string
	Location *time.Location
}

// Scanner selects the reminders that fire at a given instant. It never
// writes.
type Scanner struct {
	projects  ProjectLister
	reminders ReminderLister
	users     UserLookup
	zones     *timezone.Resolver
	logger    *slog.Logger
}

func NewScanner(projects ProjectLister, reminders ReminderLister, users UserLookup, zones *timezone.Resolver, logger *slog.Logger) *Scanner {
	return &Scanner{
		projects:  projects,
		reminders: reminders,
		users:     users,
		zones:     zones,
		logger:    logger,
	}
}

// Scan returns every active reminder whose send time, seen in its creator's
// zone, is the current local minute and which is due on the local date.
func (s *Scanner) Scan(ctx context.Context, now time.Time) ([]Candidate, error) {
	projects, err := s.projects.ListWithWebhook(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	// time zone preferences, shared by every project in this pass
	prefs := make(map[int64]string)

	var candidates []Candidate
	for _, project := range projects {
		reminders, err := s.reminders.ListActiveByProject(ctx, project.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to list reminders, skipping project",
				"project_id", project.ID, "error", err)
			continue
		}

		for _, r := range reminders {
			pref, ok := prefs[r.CreatedByID]
			if !ok {
				pref = s.preference(ctx, r.CreatedByID)
				prefs[r.CreatedByID] = pref
			}
			zone := s.zones.Resolve(pref)
			loc := s.zones.Location(pref)

			if !Matches(r, now, loc) {
				continue
			}
			if alreadySent(r, now) {
				s.logger.DebugContext(ctx, "reminder already sent this minute", "reminder_id", r.ID)
				continue
			}

			s.logger.DebugContext(ctx, "reminder due",
				"reminder_id", r.ID, "project_id", project.ID, "timezone", zone,
				"send_time", r.LocalSendTime(loc))
			candidates = append(candidates, Candidate{Project: project, Reminder: r, Timezone: zone, Location: loc})
		}
	}
	return candidates, nil
}

// preference returns the creator's time zone preference, blank when the
// creator cannot be loaded.
func (s *Scanner) preference(ctx context.Context, userID int64) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to load reminder creator, using default timezone",
				"user_id", userID, "error", err)
		}
		return ""
	}
	return user.TimeZone
}

// Matches reports whether r fires at now in loc: the local minute equals the
// send time's local minute and r is due on the local date.
func Matches(r *models.Reminder, now time.Time, loc *time.Location) bool {
	local := now.In(loc)
	if local.Format("15:04") != r.LocalSendTime(loc) {
		return false
	}
	return recurrence.IsDue(r, models.DateOf(local))
}

func alreadySent(r *models.Reminder, now time.Time) bool {
	if r.LastSentAt == nil {
		return false
	}
	return r.LastSentAt.Truncate(time.Minute).Equal(now.Truncate(time.Minute))
}
