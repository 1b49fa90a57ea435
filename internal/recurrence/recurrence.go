// Package recurrence decides when a reminder is due and when it fires next.
// All dates are local calendar dates in the reminder owner's effective zone.
package recurrence

import (
	"time"

	"github.com/hapo/redmine-reminder/internal/models"
)

// IsDue reports whether r should fire on the local date today.
func IsDue(r *models.Reminder, today models.Date) bool {
	if !r.Active {
		return false
	}
	if r.SendDate.After(today) {
		return false
	}
	if !r.IsRecurring {
		return r.SendDate == today
	}

	switch r.RecurringType {
	case models.RecurringDaily:
		return true
	case models.RecurringWeekdays:
		return isWeekday(today.Weekday())
	case models.RecurringWeekly:
		return today.Weekday() == r.SendDate.Weekday()
	case models.RecurringCustom:
		return r.CustomDays.Contains(today.Weekday())
	default:
		// unknown types never fire
		return false
	}
}

// NextOccurrence returns the date r fires next after today. It is computed
// from today, not from r.SendDate, so a reminder whose send date lies in the
// past jumps forward from now. ok is false for one-off reminders, unknown
// types and custom reminders without days.
func NextOccurrence(r *models.Reminder, today models.Date) (next models.Date, ok bool) {
	if !r.IsRecurring {
		return models.Date{}, false
	}

	switch r.RecurringType {
	case models.RecurringDaily:
		return today.AddDays(1), true
	case models.RecurringWeekdays:
		next = today.AddDays(1)
		for !isWeekday(next.Weekday()) {
			next = next.AddDays(1)
		}
		return next, true
	case models.RecurringWeekly:
		return today.AddDays(7), true
	case models.RecurringCustom:
		return nextCustom(r.CustomDays, today)
	default:
		return models.Date{}, false
	}
}

func nextCustom(days models.Weekdays, today models.Date) (models.Date, bool) {
	var sorted models.Weekdays
	for _, d := range days.Sorted() {
		if models.ValidCode(d) {
			sorted = append(sorted, d)
		}
	}
	if len(sorted) == 0 {
		return models.Date{}, false
	}
	current := int(today.Weekday())

	for _, d := range sorted {
		if d > current {
			return today.AddDays(d - current), true
		}
	}
	// wrap to the first configured day of the following week
	return today.AddDays(7 - current + sorted[0]), true
}

func isWeekday(d time.Weekday) bool {
	return d >= time.Monday && d <= time.Friday
}
