package tracker

import (
	"errors"
	"math"
	"testing"
	"time"

	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/model"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewSession(nil)
	if s.State() != StateIdle {
		t.Fatalf("expected idle, got %s", s.State())
	}
	if _, err := s.Stop(*at(15, 0)); !errors.Is(err, apperrors.ErrPreconditionNotMet) {
		t.Fatalf("expected precondition error from idle stop, got %v", err)
	}

	entry, err := s.Start(*at(14, 0), "", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.State() != StateActive || entry.ID != "" || entry.Synced || entry.UserID != "u1" {
		t.Fatalf("unexpected start entry %+v", entry)
	}

	entry, err = s.Stop(*at(17, 40))
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if s.State() != StateCompleted || !entry.SwapOut.Equal(*at(17, 40)) || entry.SwapOutSynced {
		t.Fatalf("unexpected stop entry %+v", entry)
	}

	if _, err := s.Stop(*at(18, 0)); !errors.Is(err, apperrors.ErrPreconditionNotMet) {
		t.Fatalf("expected precondition error from completed stop, got %v", err)
	}
	got, _ := s.Entry()
	if !got.SwapOut.Equal(*at(17, 40)) {
		t.Fatalf("second stop changed swapOut to %v", got.SwapOut)
	}
}

func TestSessionStartFromCompletedDropsID(t *testing.T) {
	completed := model.LocalEntry{ID: "abc", SwapIn: at(14, 0), SwapOut: at(17, 40), Synced: true, SwapOutSynced: true}
	s := NewSession(&completed)
	if s.State() != StateCompleted {
		t.Fatalf("expected completed, got %s", s.State())
	}

	entry, err := s.Start(*at(19, 0), "", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if entry.ID != "" || entry.SwapOut != nil || entry.Synced {
		t.Fatalf("expected fresh entry, got %+v", entry)
	}
}

func TestSessionStartWhileActiveIsRejected(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.Start(*at(14, 0), "", "u1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, custom := range []string{"", "15:00"} {
		if _, err := s.Start(*at(15, 0), custom, "u1"); !errors.Is(err, apperrors.ErrPreconditionNotMet) {
			t.Fatalf("expected precondition error for start %q while active, got %v", custom, err)
		}
	}
	got, _ := s.Entry()
	if s.State() != StateActive || !got.SwapIn.Equal(*at(14, 0)) {
		t.Fatalf("rejected start changed the entry: %+v", got)
	}
}

func TestSessionCustomStartTime(t *testing.T) {
	s := NewSession(nil)
	now := time.Date(2024, 5, 6, 15, 0, 0, 0, time.UTC)

	entry, err := s.Start(now, "13:30", "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !entry.SwapIn.Equal(time.Date(2024, 5, 6, 13, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected swapIn %v", entry.SwapIn)
	}

	s = NewSession(nil)
	for _, bad := range []string{"25:00", "7:5", "abc", "12:60"} {
		if _, err := s.Start(now, bad, "u1"); !errors.Is(err, apperrors.ErrInvalidTimeFormat) {
			t.Fatalf("expected invalid time error for %q, got %v", bad, err)
		}
		if s.State() != StateIdle {
			t.Fatalf("rejected start changed state to %s", s.State())
		}
	}
}

func TestSessionEntryIsACopy(t *testing.T) {
	s := NewSession(nil)
	_, _ = s.Start(*at(14, 0), "", "u1")

	entry, _ := s.Entry()
	*entry.SwapIn = entry.SwapIn.Add(time.Hour)

	again, _ := s.Entry()
	if !again.SwapIn.Equal(*at(14, 0)) {
		t.Fatalf("mutating a copy changed the session: %v", again.SwapIn)
	}
}

func TestProgress(t *testing.T) {
	swapIn := *at(14, 0)

	if got := Progress(swapIn.Add(time.Hour), swapIn); math.Abs(got-0.2727) > 0.0001 {
		t.Fatalf("expected ~0.2727 after one hour, got %f", got)
	}
	if got := Remaining(swapIn.Add(time.Hour), swapIn); got != 2*time.Hour+40*time.Minute {
		t.Fatalf("expected 2h40m remaining, got %v", got)
	}
	if got := Progress(swapIn.Add(-time.Minute), swapIn); got != 0 {
		t.Fatalf("expected 0 before start, got %f", got)
	}
	if got := Progress(swapIn.Add(5*time.Hour), swapIn); got != 1 {
		t.Fatalf("expected clamp to 1, got %f", got)
	}
	if got := Remaining(swapIn.Add(5*time.Hour), swapIn); got != 0 {
		t.Fatalf("expected no time remaining, got %v", got)
	}
	if !ExpectedEnd(swapIn).Equal(*at(17, 40)) {
		t.Fatalf("unexpected expected end %v", ExpectedEnd(swapIn))
	}

	last := -1.0
	for m := 0; m <= 240; m += 5 {
		p := Progress(swapIn.Add(time.Duration(m)*time.Minute), swapIn)
		if p < last {
			t.Fatalf("progress went backwards at %dm: %f < %f", m, p, last)
		}
		last = p
	}
}
