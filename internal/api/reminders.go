package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hapo/redmine-reminder/internal/models"
	"github.com/hapo/redmine-reminder/internal/rrule"
)

const (
	defaultUpcoming = 5
	maxUpcoming     = 50
)

// reminderRequest is the body of create and update calls. Nil fields are left
// unchanged on update.
type reminderRequest struct {
	Content       *string  `json:"content"`
	SendDate      *string  `json:"send_date" validate:"omitempty,datetime=2006-01-02"`
	SendTime      *string  `json:"send_time" validate:"omitempty,datetime=15:04"`
	IsRecurring   *bool    `json:"is_recurring"`
	RecurringType *string  `json:"recurring_type"`
	CustomDays    *[]int   `json:"custom_days"`
	IssueID       issueRef `json:"issue_id"`
	Active        *bool    `json:"active"`
}

// issueRef tells an absent issue_id apart from an explicit null. null and 0
// both unlink the issue.
type issueRef struct {
	Set bool
	ID  int64
}

func (ref *issueRef) UnmarshalJSON(data []byte) error {
	ref.Set = true
	if string(data) == "null" {
		ref.ID = 0
		return nil
	}
	return json.Unmarshal(data, &ref.ID)
}

// reminderView is a reminder as seen by the calling user.
type reminderView struct {
	*models.Reminder
	Timezone      string `json:"timezone"`
	LocalSendTime string `json:"local_send_time"`
	Schedule      string `json:"schedule"`
}

func (h *Handler) view(r *models.Reminder, zone string, loc *time.Location) reminderView {
	return reminderView{
		Reminder:      r,
		Timezone:      zone,
		LocalSendTime: r.LocalSendTime(loc),
		Schedule:      rrule.HumanReadable(r),
	}
}

// callerZone resolves the time zone the caller reads and writes times in.
func (h *Handler) callerZone(ctx context.Context) (string, *time.Location) {
	var pref string
	if id, ok := UserID(ctx); ok {
		if user, err := h.users.GetByID(ctx, id); err == nil {
			pref = user.TimeZone
		} else if !errors.Is(err, models.ErrNotFound) {
			h.logger.WarnContext(ctx, "failed to load caller, using default timezone", "user_id", id, "error", err)
		}
	}
	return h.zones.Resolve(pref), h.zones.Location(pref)
}

func (h *Handler) project(r *http.Request) (*models.Project, error) {
	id, err := pathID(r, "projectID")
	if err != nil {
		return nil, err
	}
	return h.projects.GetByID(r.Context(), id)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.ErrNotFound
	}
	return id, nil
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return h.validator.Struct(dst)
}

// apply copies the request onto reminder. send_time is read as a wall clock
// time in loc on the reminder's send date.
func (req *reminderRequest) apply(reminder *models.Reminder, loc *time.Location, today models.Date) error {
	if req.Content != nil {
		reminder.Content = *req.Content
	}
	if req.SendDate != nil {
		d, err := models.ParseDate(*req.SendDate)
		if err != nil {
			return &models.ValidationError{Field: "send_date", Message: "is not a valid date"}
		}
		reminder.SendDate = d
	}
	if req.SendTime != nil {
		day := reminder.SendDate
		if day.IsZero() {
			day = today
		}
		local, err := time.ParseInLocation("2006-01-02 15:04", day.String()+" "+*req.SendTime, loc)
		if err != nil {
			return &models.ValidationError{Field: "send_time", Message: "is not a valid time"}
		}
		reminder.SetSendTime(local)
	}
	if req.IsRecurring != nil {
		reminder.IsRecurring = *req.IsRecurring
	}
	if req.RecurringType != nil {
		reminder.RecurringType = models.RecurringType(*req.RecurringType)
	}
	if req.CustomDays != nil {
		reminder.CustomDays = models.Weekdays(*req.CustomDays)
	}
	if req.IssueID.Set {
		switch {
		case req.IssueID.ID < 0:
			return &models.ValidationError{Field: "issue_id", Message: "must be greater than 0"}
		case req.IssueID.ID == 0:
			reminder.IssueID = nil
		default:
			id := req.IssueID.ID
			reminder.IssueID = &id
		}
	}
	if req.Active != nil {
		reminder.Active = *req.Active
	}

	// a one-off reminder carries no recurrence settings
	if !reminder.IsRecurring {
		reminder.RecurringType = models.RecurringNone
		reminder.CustomDays = nil
	}
	return nil
}

func (h *Handler) listReminders(w http.ResponseWriter, r *http.Request) {
	project, err := h.project(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	reminders, err := h.reminders.ListByProject(r.Context(), project.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	zone, loc := h.callerZone(r.Context())
	views := make([]reminderView, len(reminders))
	for i, rem := range reminders {
		views[i] = h.view(rem, zone, loc)
	}
	WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) createReminder(w http.ResponseWriter, r *http.Request) {
	project, err := h.project(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req reminderRequest
	if err := h.decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	userID, _ := UserID(r.Context())
	zone, loc := h.callerZone(r.Context())

	reminder := &models.Reminder{
		ProjectID:   project.ID,
		CreatedByID: userID,
		Active:      true,
	}
	if err := req.apply(reminder, loc, models.DateOf(h.clock.Now().In(loc))); err != nil {
		WriteError(w, err)
		return
	}
	if err := reminder.Validate(); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.reminders.Create(r.Context(), reminder); err != nil {
		WriteError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "reminder created", "reminder_id", reminder.ID, "project_id", project.ID, "user_id", userID)
	WriteJSON(w, http.StatusCreated, h.view(reminder, zone, loc))
}

func (h *Handler) getReminder(w http.ResponseWriter, r *http.Request) {
	reminder, err := h.findReminder(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	zone, loc := h.callerZone(r.Context())
	WriteJSON(w, http.StatusOK, h.view(reminder, zone, loc))
}

func (h *Handler) updateReminder(w http.ResponseWriter, r *http.Request) {
	reminder, err := h.findReminder(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req reminderRequest
	if err := h.decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	zone, loc := h.callerZone(r.Context())
	if err := req.apply(reminder, loc, models.DateOf(h.clock.Now().In(loc))); err != nil {
		WriteError(w, err)
		return
	}
	if err := reminder.Validate(); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.reminders.Update(r.Context(), reminder, req.SendDate != nil); err != nil {
		WriteError(w, err)
		return
	}

	// reload so the response carries a send date advanced concurrently
	updated, err := h.reminders.GetByID(r.Context(), reminder.ProjectID, reminder.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.view(updated, zone, loc))
}

func (h *Handler) deleteReminder(w http.ResponseWriter, r *http.Request) {
	project, err := h.project(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	id, err := pathID(r, "reminderID")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.reminders.Delete(r.Context(), project.ID, id); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// upcomingReminder previews the next send times of a reminder in its
// creator's time zone.
func (h *Handler) upcomingReminder(w http.ResponseWriter, r *http.Request) {
	reminder, err := h.findReminder(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	count := defaultUpcoming
	if s := r.URL.Query().Get("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxUpcoming {
			WriteError(w, &models.ValidationError{Field: "count", Message: fmt.Sprintf("must be between 1 and %d", maxUpcoming)})
			return
		}
		count = n
	}

	var pref string
	if creator, err := h.users.GetByID(r.Context(), reminder.CreatedByID); err == nil {
		pref = creator.TimeZone
	}
	zone, loc := h.zones.Resolve(pref), h.zones.Location(pref)

	rule, err := rrule.String(reminder, loc)
	if err != nil {
		WriteError(w, &models.ValidationError{Field: "recurring_type", Message: err.Error()})
		return
	}
	occurrences, err := rrule.Upcoming(reminder, loc, h.clock.Now(), count)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !reminder.Active {
		occurrences = nil
	}
	if occurrences == nil {
		occurrences = []time.Time{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"timezone":    zone,
		"rrule":       rule,
		"schedule":    rrule.HumanReadable(reminder),
		"occurrences": occurrences,
	})
}

func (h *Handler) findReminder(r *http.Request) (*models.Reminder, error) {
	project, err := h.project(r)
	if err != nil {
		return nil, err
	}
	id, err := pathID(r, "reminderID")
	if err != nil {
		return nil, err
	}
	return h.reminders.GetByID(r.Context(), project.ID, id)
}
