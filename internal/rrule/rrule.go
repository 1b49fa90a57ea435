package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hapo/redmine-reminder/internal/models"
)

// Weekday constants indexed by weekday code (0 = Sunday)
var weekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

var workWeek = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// Options builds the RFC 5545 options describing a reminder's schedule.
// DTSTART is the send date at the send time's wall clock in loc.
func Options(r *models.Reminder, loc *time.Location) (*rrule.ROption, error) {
	local := r.SendTime.In(loc)
	opt := &rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: time.Date(r.SendDate.Year, r.SendDate.Month, r.SendDate.Day, local.Hour(), local.Minute(), 0, 0, loc),
	}

	if !r.IsRecurring {
		opt.Count = 1
		return opt, nil
	}

	switch r.RecurringType {
	case models.RecurringDaily:
	case models.RecurringWeekdays:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = workWeek
	case models.RecurringWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{weekdays[r.SendDate.Weekday()]}
	case models.RecurringCustom:
		opt.Freq = rrule.WEEKLY
		for _, d := range r.CustomDays.Sorted() {
			if !models.ValidCode(d) {
				return nil, fmt.Errorf("invalid weekday code %d", d)
			}
			opt.Byweekday = append(opt.Byweekday, weekdays[d])
		}
		if len(opt.Byweekday) == 0 {
			return nil, fmt.Errorf("custom recurrence without days")
		}
	default:
		return nil, fmt.Errorf("unknown recurring type %q", r.RecurringType)
	}
	return opt, nil
}

// Rule returns the parsed rule for a reminder.
func Rule(r *models.Reminder, loc *time.Location) (*rrule.RRule, error) {
	opt, err := Options(r, loc)
	if err != nil {
		return nil, err
	}
	return rrule.NewRRule(*opt)
}

// String returns the RRULE line (without DTSTART) for a reminder
func String(r *models.Reminder, loc *time.Location) (string, error) {
	opt, err := Options(r, loc)
	if err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}

// Upcoming returns up to count occurrences at or after the given time.
func Upcoming(r *models.Reminder, loc *time.Location, after time.Time, count int) ([]time.Time, error) {
	rule, err := Rule(r, loc)
	if err != nil {
		return nil, err
	}

	iterator := rule.Iterator()
	var results []time.Time
	for len(results) < count {
		next, ok := iterator()
		if !ok {
			break
		}
		if !next.Before(after) {
			results = append(results, next)
		}
	}
	return results, nil
}

// HumanReadable returns a short English description of a reminder's schedule.
func HumanReadable(r *models.Reminder) string {
	if !r.IsRecurring {
		return "Once on " + r.FormattedSendDate()
	}

	switch r.RecurringType {
	case models.RecurringDaily:
		return "Every day"
	case models.RecurringWeekdays:
		return "Every weekday (Monday to Friday)"
	case models.RecurringWeekly:
		return "Every week on " + r.SendDate.Weekday().String()
	case models.RecurringCustom:
		names := r.CustomDays.Sorted().Names()
		if len(names) == 0 {
			return "Never"
		}
		return "Every " + strings.Join(names, ", ")
	default:
		return "Never"
	}
}
