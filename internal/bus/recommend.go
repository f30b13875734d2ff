package bus

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/model"
)

const clockLayout = "15:04"

var clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// DefaultTimes seeds the timetable of a user that has none yet.
var DefaultTimes = []string{"17:15", "17:30", "18:10", "18:20", "18:20", "19:15", "19:45"}

// ValidateTime accepts zero-padded 24h HH:MM strings only.
func ValidateTime(hhmm string) error {
	if !clockPattern.MatchString(hhmm) {
		return fmt.Errorf("%q: %w", hhmm, apperrors.ErrInvalidTimeFormat)
	}
	hours, _ := strconv.Atoi(hhmm[:2])
	minutes, _ := strconv.Atoi(hhmm[3:])
	if hours > 23 || minutes > 59 {
		return fmt.Errorf("%q: %w", hhmm, apperrors.ErrInvalidTimeFormat)
	}
	return nil
}

// FormatClock renders t as HH:MM in its own location.
func FormatClock(t time.Time) string {
	return t.Format(clockLayout)
}

// NextAfter returns the first time in sorted that is not earlier than
// threshold. HH:MM strings sort chronologically within one day, so plain
// string comparison is enough. There is no rollover to the next day.
func NextAfter(sorted []string, threshold string) (string, bool) {
	i := sort.SearchStrings(sorted, threshold)
	if i == len(sorted) {
		return "", false
	}
	return sorted[i], true
}

func NextFromNow(sorted []string, now time.Time) (string, bool) {
	return NextAfter(sorted, FormatClock(now))
}

// BestAfterSession picks the first bus leaving once a shift started at
// swapIn has run for shiftDuration. The threshold is the end time's HH:MM
// alone, so a shift ending after midnight wraps: 21:00 + 3h40m compares as
// "00:40" and returns the day's first bus. There is no day rollover here.
func BestAfterSession(sorted []string, swapIn time.Time, shiftDuration time.Duration) (string, bool) {
	return NextAfter(sorted, FormatClock(swapIn.Add(shiftDuration)))
}

// Times extracts the time values, sorted.
func Times(busTimes []model.BusTime) []string {
	out := make([]string, 0, len(busTimes))
	for _, b := range busTimes {
		out = append(out, b.Time)
	}
	sort.Strings(out)
	return out
}

func SortByTime(busTimes []model.BusTime) {
	sort.SliceStable(busTimes, func(i, j int) bool {
		return busTimes[i].Time < busTimes[j].Time
	})
}
