package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hapo/redmine-reminder/internal/models"
)

// 2024-03-04 is a Monday.
var (
	monday    = models.NewDate(2024, time.March, 4)
	tuesday   = monday.AddDays(1)
	wednesday = monday.AddDays(2)
	friday    = monday.AddDays(4)
	saturday  = monday.AddDays(5)
	sunday    = monday.AddDays(6)
)

func recurring(kind models.RecurringType, start models.Date, days ...int) *models.Reminder {
	return &models.Reminder{
		Content:       "x",
		SendDate:      start,
		IsRecurring:   true,
		RecurringType: kind,
		CustomDays:    models.Weekdays(days),
		Active:        true,
	}
}

func TestIsDueOneOff(t *testing.T) {
	r := &models.Reminder{SendDate: wednesday, Active: true}

	for offset := -3; offset <= 10; offset++ {
		d := wednesday.AddDays(offset)
		assert.Equal(t, d == wednesday, IsDue(r, d), "day %s", d)
	}

	r.Active = false
	assert.False(t, IsDue(r, wednesday))
}

func TestIsDueOneOffIgnoresRecurringType(t *testing.T) {
	r := &models.Reminder{SendDate: monday, RecurringType: models.RecurringDaily, Active: true}
	assert.True(t, IsDue(r, monday))
	assert.False(t, IsDue(r, tuesday))
}

func TestIsDueNotStartedYet(t *testing.T) {
	r := recurring(models.RecurringDaily, wednesday)
	assert.False(t, IsDue(r, tuesday))
	assert.True(t, IsDue(r, wednesday))
}

func TestIsDueRecurring(t *testing.T) {
	tests := []struct {
		name string
		r    *models.Reminder
		day  models.Date
		want bool
	}{
		{"daily on start", recurring(models.RecurringDaily, monday), monday, true},
		{"daily later", recurring(models.RecurringDaily, monday), sunday.AddDays(30), true},
		{"weekdays friday", recurring(models.RecurringWeekdays, monday), friday, true},
		{"weekdays saturday", recurring(models.RecurringWeekdays, monday), saturday, false},
		{"weekdays sunday", recurring(models.RecurringWeekdays, monday), sunday, false},
		{"weekdays saturday start", recurring(models.RecurringWeekdays, saturday), saturday, false},
		{"weekly same weekday", recurring(models.RecurringWeekly, tuesday), tuesday.AddDays(14), true},
		{"weekly other weekday", recurring(models.RecurringWeekly, tuesday), wednesday.AddDays(7), false},
		{"custom member", recurring(models.RecurringCustom, monday, 1, 3, 5), wednesday, true},
		{"custom non member", recurring(models.RecurringCustom, monday, 1, 3, 5), tuesday, false},
		{"custom sunday code", recurring(models.RecurringCustom, monday, 0), sunday, true},
		{"custom empty", recurring(models.RecurringCustom, monday), monday, false},
		{"unknown type", recurring("monthly", monday), monday, false},
		{"blank type", recurring("", monday), monday, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDue(tt.r, tt.day))
		})
	}
}

func TestIsDueWeekdaysNeverOnWeekend(t *testing.T) {
	for start := 0; start < 7; start++ {
		r := recurring(models.RecurringWeekdays, monday.AddDays(start))
		for offset := 0; offset < 28; offset++ {
			d := r.SendDate.AddDays(offset)
			wd := d.Weekday()
			if wd == time.Saturday || wd == time.Sunday {
				assert.False(t, IsDue(r, d), "start %s day %s", r.SendDate, d)
			} else {
				assert.True(t, IsDue(r, d), "start %s day %s", r.SendDate, d)
			}
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name   string
		r      *models.Reminder
		today  models.Date
		want   models.Date
		wantOK bool
	}{
		{"daily", recurring(models.RecurringDaily, monday), monday, tuesday, true},
		{"weekdays midweek", recurring(models.RecurringWeekdays, monday), tuesday, wednesday, true},
		{"weekdays friday skips weekend", recurring(models.RecurringWeekdays, monday), friday, monday.AddDays(7), true},
		{"weekdays saturday", recurring(models.RecurringWeekdays, monday), saturday, monday.AddDays(7), true},
		{"weekly", recurring(models.RecurringWeekly, monday), wednesday, wednesday.AddDays(7), true},
		{"custom tuesday to wednesday", recurring(models.RecurringCustom, monday, 1, 3, 5), tuesday, wednesday, true},
		{"custom friday wraps to monday", recurring(models.RecurringCustom, monday, 1, 3, 5), friday, monday.AddDays(7), true},
		{"custom unsorted input", recurring(models.RecurringCustom, monday, 5, 3, 1), tuesday, wednesday, true},
		{"custom single day same weekday", recurring(models.RecurringCustom, monday, 3), wednesday, wednesday.AddDays(7), true},
		{"custom sunday wraps from saturday", recurring(models.RecurringCustom, monday, 0), saturday, sunday, true},
		{"custom sunday from sunday", recurring(models.RecurringCustom, monday, 0, 6), sunday, saturday.AddDays(7), true},
		{"custom empty", recurring(models.RecurringCustom, monday), monday, models.Date{}, false},
		{"unknown type", recurring("yearly", monday), monday, models.Date{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextOccurrence(tt.r, tt.today)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextOccurrenceOneOff(t *testing.T) {
	r := &models.Reminder{SendDate: monday, Active: true, RecurringType: models.RecurringDaily}
	_, ok := NextOccurrence(r, monday)
	assert.False(t, ok)
}

func TestNextOccurrenceCountsFromToday(t *testing.T) {
	// A reminder whose send date lies weeks in the past moves forward from today.
	r := recurring(models.RecurringWeekly, monday.AddDays(-35))
	got, ok := NextOccurrence(r, wednesday)
	assert.True(t, ok)
	assert.Equal(t, wednesday.AddDays(7), got)
}

func TestNextOccurrenceIsDue(t *testing.T) {
	// Whatever NextOccurrence returns must itself be a due date.
	reminders := []*models.Reminder{
		recurring(models.RecurringDaily, monday),
		recurring(models.RecurringWeekdays, monday),
		recurring(models.RecurringCustom, monday, 2, 4),
		recurring(models.RecurringCustom, monday, 0, 6),
	}
	for _, r := range reminders {
		for offset := 0; offset < 14; offset++ {
			today := monday.AddDays(offset)
			next, ok := NextOccurrence(r, today)
			assert.True(t, ok)
			assert.True(t, next.After(today))
			assert.True(t, IsDue(r, next), "%s from %s -> %s", r.RecurringType, today, next)
		}
	}
}
