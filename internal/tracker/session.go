package tracker

import (
	"fmt"
	"strconv"
	"time"

	"shifttrack/internal/bus"
	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/model"
)

type State int

const (
	StateIdle State = iota
	StateActive
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	default:
		return "idle"
	}
}

func StateOf(entry *model.LocalEntry) State {
	switch {
	case entry == nil || entry.SwapIn == nil:
		return StateIdle
	case entry.SwapOut == nil:
		return StateActive
	default:
		return StateCompleted
	}
}

// Session is the in-memory shift lifecycle. It does no I/O.
type Session struct {
	entry *model.LocalEntry
}

func NewSession(entry *model.LocalEntry) *Session {
	s := &Session{}
	if entry != nil {
		clone := entry.Clone()
		s.entry = &clone
	}
	return s
}

func (s *Session) State() State {
	return StateOf(s.entry)
}

// Entry returns a copy of the current entry.
func (s *Session) Entry() (model.LocalEntry, bool) {
	if s.entry == nil {
		return model.LocalEntry{}, false
	}
	return s.entry.Clone(), true
}

// Start begins a fresh entry from Idle or Completed. Starting from Completed
// drops the previous entry's remote id from memory; the remote record stays
// as history. While Active it returns ErrPreconditionNotMet and changes
// nothing, so a day never has two open shifts. customTime, when set, is HH:MM
// on now's date.
func (s *Session) Start(now time.Time, customTime, userID string) (model.LocalEntry, error) {
	if s.State() == StateActive {
		return model.LocalEntry{}, apperrors.ErrPreconditionNotMet
	}
	swapIn := now
	if customTime != "" {
		parsed, err := ClockOn(now, customTime)
		if err != nil {
			return model.LocalEntry{}, err
		}
		swapIn = parsed
	}

	s.entry = &model.LocalEntry{
		UserID: userID,
		SwapIn: &swapIn,
	}
	return s.entry.Clone(), nil
}

// Stop ends an active shift. Outside Active it changes nothing.
func (s *Session) Stop(now time.Time) (model.LocalEntry, error) {
	if s.State() != StateActive {
		return model.LocalEntry{}, apperrors.ErrPreconditionNotMet
	}
	swapOut := now
	s.entry.SwapOut = &swapOut
	s.entry.Synced = false
	s.entry.SwapOutSynced = false
	return s.entry.Clone(), nil
}

// Replace swaps in an entry from storage or a merge.
func (s *Session) Replace(entry *model.LocalEntry) {
	if entry == nil {
		s.entry = nil
		return
	}
	clone := entry.Clone()
	s.entry = &clone
}

// ClockOn places an HH:MM time of day on the date of ref, in ref's location.
func ClockOn(ref time.Time, hhmm string) (time.Time, error) {
	if err := bus.ValidateTime(hhmm); err != nil {
		return time.Time{}, fmt.Errorf("start time: %w", err)
	}
	hours, _ := strconv.Atoi(hhmm[:2])
	minutes, _ := strconv.Atoi(hhmm[3:])
	return time.Date(ref.Year(), ref.Month(), ref.Day(), hours, minutes, 0, 0, ref.Location()), nil
}
