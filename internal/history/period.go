package history

import (
	"fmt"
	"time"

	"shifttrack/internal/model"
)

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return Period(raw), nil
	case "":
		return PeriodWeek, nil
	default:
		return "", fmt.Errorf("unknown period %q", raw)
	}
}

// Start returns local midnight of the first day of the period containing
// now. Weeks start on Sunday.
func Start(p Period, now time.Time) time.Time {
	day := DayStart(now)
	switch p {
	case PeriodMonth:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	case PeriodYear:
		return time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
	default:
		return day.AddDate(0, 0, -int(day.Weekday()))
	}
}

func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayBounds returns [start, end) of the calendar day containing t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := DayStart(t)
	return start, start.AddDate(0, 0, 1)
}

// TotalWorked sums completed entries. Open shifts count for nothing.
func TotalWorked(entries []model.Entry) time.Duration {
	var total time.Duration
	for _, e := range entries {
		if worked, ok := e.Worked(); ok {
			total += worked
		}
	}
	return total
}

// FormatDuration renders "3h 40m", or "40m" under an hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatClockDuration adds seconds, for live countdowns.
func FormatClockDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%s %ds", FormatDuration(d), seconds)
}

// Remove drops the given ids from entries, keeping order.
func Remove(entries []model.Entry, ids []string) []model.Entry {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if _, ok := drop[e.ID]; ok {
			continue
		}
		out = append(out, e)
	}
	return out
}
