// Package api exposes the reminder CRUD, the issue event hook and the manual
// scan trigger over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hapo/redmine-reminder/internal/models"
	"github.com/hapo/redmine-reminder/internal/timezone"
)

type ReminderStore interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	GetByID(ctx context.Context, projectID, reminderID int64) (*models.Reminder, error)
	ListByProject(ctx context.Context, projectID int64) ([]*models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder, withSendDate bool) error
	Delete(ctx context.Context, projectID, reminderID int64) error
}

type ProjectStore interface {
	GetByID(ctx context.Context, projectID int64) (*models.Project, error)
	Upsert(ctx context.Context, project *models.Project) error
}

type UserStore interface {
	GetByID(ctx context.Context, userID int64) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

type IssueStore interface {
	Upsert(ctx context.Context, issue *models.Issue) error
}

type IssueNotifier interface {
	Notify(ctx context.Context, ev *models.IssueEvent) error
	NotifyWiki(ctx context.Context, ev *models.WikiEvent) error
}

// Scanner runs one scan-and-dispatch pass and reports how many reminders were sent.
type Scanner interface {
	ScanAndDispatch(ctx context.Context) (int, error)
}

// Deps groups the collaborators of a Handler.
type Deps struct {
	Reminders ReminderStore
	Projects  ProjectStore
	Users     UserStore
	Issues    IssueStore
	Notifier  IssueNotifier
	Scanner   Scanner
	Zones     *timezone.Resolver
	Clock     clock.Clock
	Logger    *slog.Logger
}

type Handler struct {
	reminders ReminderStore
	projects  ProjectStore
	users     UserStore
	issues    IssueStore
	notifier  IssueNotifier
	scanner   Scanner
	zones     *timezone.Resolver
	validator *Validator
	clock     clock.Clock
	logger    *slog.Logger
}

func NewHandler(deps Deps) *Handler {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Zones == nil {
		deps.Zones = timezone.NewResolver("")
	}
	return &Handler{
		reminders: deps.Reminders,
		projects:  deps.Projects,
		users:     deps.Users,
		issues:    deps.Issues,
		notifier:  deps.Notifier,
		scanner:   deps.Scanner,
		zones:     deps.Zones,
		validator: NewValidator(),
		clock:     deps.Clock,
		logger:    deps.Logger,
	}
}

// Routes builds the HTTP router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// sync and event routes are called by the tracker itself
		r.Put("/projects/{projectID}", h.syncProject)
		r.Put("/users/{userID}", h.syncUser)
		r.Post("/events/issues", h.issueEvent)
		r.Post("/events/wiki", h.wikiEvent)
		r.Post("/scan", h.scan)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Route("/projects/{projectID}/reminders", func(r chi.Router) {
				r.Get("/", h.listReminders)
				r.Post("/", h.createReminder)
				r.Get("/{reminderID}", h.getReminder)
				r.Patch("/{reminderID}", h.updateReminder)
				r.Delete("/{reminderID}", h.deleteReminder)
				r.Get("/{reminderID}/upcoming", h.upcomingReminder)
			})
		})
	})

	return r
}
