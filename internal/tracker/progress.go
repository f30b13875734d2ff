package tracker

import "time"

// ShiftDuration is the planned length of every shift.
const ShiftDuration = 3*time.Hour + 40*time.Minute

func Elapsed(now, swapIn time.Time) time.Duration {
	return now.Sub(swapIn)
}

// Progress is elapsed/ShiftDuration clamped to [0, 1].
func Progress(now, swapIn time.Time) float64 {
	elapsed := Elapsed(now, swapIn)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= ShiftDuration {
		return 1
	}
	return float64(elapsed) / float64(ShiftDuration)
}

func Remaining(now, swapIn time.Time) time.Duration {
	remaining := ShiftDuration - Elapsed(now, swapIn)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func ExpectedEnd(swapIn time.Time) time.Time {
	return swapIn.Add(ShiftDuration)
}
