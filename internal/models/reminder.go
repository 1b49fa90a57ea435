package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type RecurringType string

const (
	RecurringNone     RecurringType = ""
	RecurringDaily    RecurringType = "daily"
	RecurringWeekdays RecurringType = "weekdays"
	RecurringWeekly   RecurringType = "weekly"
	RecurringCustom   RecurringType = "custom"
)

var recurringTypeLabels = map[RecurringType]string{
	RecurringDaily:    "Daily",
	RecurringWeekdays: "Every weekday",
	RecurringWeekly:   "Weekly",
	RecurringCustom:   "Custom",
}

// Valid reports whether t is one of the known recurrence types.
func (t RecurringType) Valid() bool {
	_, ok := recurringTypeLabels[t]
	return ok
}

// Label returns the display text used in notifications.
func (t RecurringType) Label() string {
	if label, ok := recurringTypeLabels[t]; ok {
		return label
	}
	return "No repeat"
}

// Weekdays is a set of weekday codes, 0 = Sunday .. 6 = Saturday, stored as "1,3,5".
type Weekdays []int

// ParseWeekdays parses a comma separated list of weekday codes. Entries that
// are not integers become -1 so validation can reject them.
func ParseWeekdays(s string) Weekdays {
	var days Weekdays
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			n = -1
		}
		days = append(days, n)
	}
	return days
}

// ValidCode reports whether code is a weekday code.
func ValidCode(code int) bool {
	return code >= int(time.Sunday) && code <= int(time.Saturday)
}

// Invalid returns the entries that are not weekday codes.
func (w Weekdays) Invalid() []int {
	var bad []int
	for _, d := range w {
		if !ValidCode(d) {
			bad = append(bad, d)
		}
	}
	return bad
}

func (w Weekdays) Contains(day time.Weekday) bool {
	for _, d := range w {
		if d == int(day) {
			return true
		}
	}
	return false
}

// Sorted returns a sorted copy.
func (w Weekdays) Sorted() Weekdays {
	out := make(Weekdays, len(w))
	copy(out, w)
	sort.Ints(out)
	return out
}

func (w Weekdays) String() string {
	parts := make([]string, len(w))
	for i, d := range w {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// Names returns the English weekday names of the valid codes, in stored order.
func (w Weekdays) Names() []string {
	var names []string
	for _, d := range w {
		if ValidCode(d) {
			names = append(names, time.Weekday(d).String())
		}
	}
	return names
}

func (w *Weekdays) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*w = nil
	case string:
		*w = ParseWeekdays(v)
	case []byte:
		*w = ParseWeekdays(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Weekdays", src)
	}
	return nil
}

func (w Weekdays) Value() (driver.Value, error) {
	return w.String(), nil
}

func (w Weekdays) MarshalJSON() ([]byte, error) {
	if w == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(w))
}

// Reminder is a scheduled message owned by a project member.
type Reminder struct {
	ID            int64         `json:"id" db:"id"`
	ProjectID     int64         `json:"project_id" db:"project_id"`
	CreatedByID   int64         `json:"created_by_id" db:"created_by_id"`
	IssueID       *int64        `json:"issue_id,omitempty" db:"issue_id"`
	Content       string        `json:"content" db:"content"`
	SendDate      Date          `json:"send_date" db:"send_date"`
	SendTime      time.Time     `json:"send_time" db:"send_time"` // UTC instant, only hour:minute matter
	IsRecurring   bool          `json:"is_recurring" db:"is_recurring"`
	RecurringType RecurringType `json:"recurring_type,omitempty" db:"recurring_type"`
	CustomDays    Weekdays      `json:"custom_days" db:"custom_days"`
	Active        bool          `json:"active" db:"active"`
	LastSentAt    *time.Time    `json:"last_sent_at,omitempty" db:"last_sent_at"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// SetSendTime stores t as a UTC instant truncated to the minute.
func (r *Reminder) SetSendTime(t time.Time) {
	r.SendTime = t.UTC().Truncate(time.Minute)
}

// LocalSendTime returns the wall clock "HH:MM" of the send time in loc.
func (r *Reminder) LocalSendTime(loc *time.Location) string {
	return r.SendTime.In(loc).Format("15:04")
}

// FormattedSendDate returns the send date as dd/mm/yyyy.
func (r *Reminder) FormattedSendDate() string {
	return r.SendDate.In(time.UTC).Format("02/01/2006")
}

// CustomDaysText returns the configured custom days as names, or "" for other types.
func (r *Reminder) CustomDaysText() string {
	if r.RecurringType != RecurringCustom || len(r.CustomDays) == 0 {
		return ""
	}
	return strings.Join(r.CustomDays.Names(), ", ")
}

// Validate checks the reminder the same way it is checked on every write.
func (r *Reminder) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(r.Content) == "" {
		errs = append(errs, &ValidationError{Field: "content", Message: "can't be blank"})
	}
	if r.SendTime.IsZero() {
		errs = append(errs, &ValidationError{Field: "send_time", Message: "can't be blank"})
	}
	if r.SendDate.IsZero() {
		errs = append(errs, &ValidationError{Field: "send_date", Message: "can't be blank"})
	}
	if r.IsRecurring && r.RecurringType == RecurringNone {
		errs = append(errs, &ValidationError{Field: "recurring_type", Message: "can't be blank"})
	} else if r.RecurringType != RecurringNone && !r.RecurringType.Valid() {
		errs = append(errs, &ValidationError{Field: "recurring_type", Message: "is not included in the list"})
	}
	if r.RecurringType == RecurringCustom {
		if len(r.CustomDays) == 0 {
			errs = append(errs, &ValidationError{Field: "custom_days", Message: "can't be blank for custom recurrence"})
		} else if bad := r.CustomDays.Invalid(); len(bad) > 0 {
			errs = append(errs, &ValidationError{
				Field:   "custom_days",
				Message: fmt.Sprintf("contains invalid days: %s", Weekdays(bad).String()),
			})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
