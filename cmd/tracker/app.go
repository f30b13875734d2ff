package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"shifttrack/internal/bus"
	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/history"
	"shifttrack/internal/model"
	"shifttrack/internal/tracker"
)

const helpText = `commands:
  start [HH:MM]        begin a shift now or at a time today
  stop                 end the active shift
  status               show progress and the recommended bus
  bus                  list bus times
  bus add HH:MM        add a bus time
  bus edit ID HH:MM    change a bus time
  bus rm ID            remove a bus time
  history [period]     list entries for week, month or year
  delete N [N...]      delete entries by their number in the last history
  export [period] FILE save history as an xlsx workbook
  sync                 retry syncing the current entry
  quit                 exit`

type exportFunc func(ctx context.Context, period string) ([]byte, error)

// app is the interactive front end. It owns no state that the tracker
// does not; it only caches the bus timetable and the last history listing.
type app struct {
	tracker  *tracker.Tracker
	catalog  *bus.Catalog
	identity func(ctx context.Context) tracker.Identity
	export   exportFunc
	write    func(name string, data []byte) error
	now      func() time.Time

	outMu sync.Mutex
	out   io.Writer

	mu       sync.Mutex
	busTimes []string
	shown    []model.Entry
	alerted  bool
}

func (a *app) printf(format string, args ...interface{}) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) run(ctx context.Context, in io.Reader) error {
	a.tracker.Load(ctx, a.identity(ctx))
	a.refreshBusTimes(ctx)
	a.status()

	scanner := bufio.NewScanner(in)
	a.printf("> ")
	for scanner.Scan() {
		if quit := a.handle(ctx, scanner.Text()); quit {
			return nil
		}
		a.printf("> ")
	}
	return scanner.Err()
}

func (a *app) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "start":
		custom := ""
		if len(fields) > 1 {
			custom = fields[1]
		}
		entry, err := a.tracker.Start(a.identity(ctx), custom)
		if errors.Is(err, apperrors.ErrPreconditionNotMet) {
			a.printf("shift already active, stop it first\n")
			return false
		}
		if err != nil {
			a.printf("cannot start: %v\n", err)
			return false
		}
		a.setAlerted(false)
		a.printf("shift started at %s, ends at %s\n", bus.FormatClock(*entry.SwapIn), bus.FormatClock(tracker.ExpectedEnd(*entry.SwapIn)))
	case "stop":
		entry, ok := a.tracker.Stop(a.identity(ctx))
		if !ok {
			a.printf("no active shift\n")
			return false
		}
		a.printf("shift ended at %s after %s\n", bus.FormatClock(*entry.SwapOut), history.FormatDuration(entry.SwapOut.Sub(*entry.SwapIn)))
	case "status":
		a.status()
	case "bus":
		a.busCommand(ctx, fields[1:])
	case "history":
		a.history(ctx, fields[1:])
	case "delete":
		a.delete(ctx, fields[1:])
	case "export":
		a.exportCommand(ctx, fields[1:])
	case "sync":
		res := a.tracker.Sync(ctx, a.identity(ctx))
		if res.Err != nil {
			a.printf("sync %s: %v\n", res.Outcome, res.Err)
		} else {
			a.printf("sync %s\n", res.Outcome)
		}
	case "help":
		a.printf("%s\n", helpText)
	case "quit", "exit":
		return true
	default:
		a.printf("unknown command %q, try help\n", fields[0])
	}
	return false
}

func (a *app) status() {
	now := a.now()
	view := a.tracker.Snapshot(now)

	switch view.State {
	case tracker.StateIdle:
		a.printf("no shift today\n")
	case tracker.StateActive:
		a.printf("on shift since %s: %s elapsed, %s left (%.0f%%)\n",
			bus.FormatClock(*view.SwapIn),
			history.FormatClockDuration(view.Elapsed),
			history.FormatClockDuration(view.Remaining),
			view.Progress*100)
	case tracker.StateCompleted:
		a.printf("shift done %s-%s (%s)\n",
			bus.FormatClock(*view.SwapIn), bus.FormatClock(*view.SwapOut), history.FormatDuration(view.Elapsed))
	}
	if view.State != tracker.StateIdle && !view.Synced {
		a.printf("not synced yet\n")
	}

	if next, ok := a.recommend(view, now); ok {
		a.printf("next bus: %s\n", next)
	} else {
		a.printf("no bus left today\n")
	}
}

func (a *app) recommend(view tracker.View, now time.Time) (string, bool) {
	a.mu.Lock()
	times := a.busTimes
	a.mu.Unlock()

	if view.State == tracker.StateActive {
		return bus.BestAfterSession(times, *view.SwapIn, tracker.ShiftDuration)
	}
	return bus.NextFromNow(times, now)
}

// tick announces the end of the planned shift once per session.
func (a *app) tick(now time.Time) {
	view := a.tracker.Snapshot(now)
	if view.State != tracker.StateActive || !view.DurationReached {
		return
	}

	a.mu.Lock()
	already := a.alerted
	a.alerted = true
	a.mu.Unlock()
	if !already {
		a.printf("\nshift duration reached, time to swap out\n")
	}
}

func (a *app) setAlerted(v bool) {
	a.mu.Lock()
	a.alerted = v
	a.mu.Unlock()
}

func (a *app) setBusTimes(times []model.BusTime) {
	sorted := bus.Times(times)
	a.mu.Lock()
	a.busTimes = sorted
	a.mu.Unlock()
}

func (a *app) refreshBusTimes(ctx context.Context) []model.BusTime {
	times, err := a.catalog.List(ctx, a.identity(ctx).UserID)
	if err != nil {
		a.printf("bus times unavailable: %v\n", err)
		return nil
	}
	a.setBusTimes(times)
	return times
}

func (a *app) busCommand(ctx context.Context, args []string) {
	userID := a.identity(ctx).UserID
	var err error

	switch {
	case len(args) == 0:
	case args[0] == "add" && len(args) == 2:
		err = a.catalog.Add(ctx, userID, args[1])
	case args[0] == "edit" && len(args) == 3:
		err = a.catalog.Edit(ctx, userID, args[1], args[2])
	case args[0] == "rm" && len(args) == 2:
		err = a.catalog.Remove(ctx, userID, args[1])
	default:
		a.printf("usage: bus [add HH:MM | edit ID HH:MM | rm ID]\n")
		return
	}
	if err != nil {
		a.printf("bus: %v\n", err)
		return
	}

	for _, bt := range a.refreshBusTimes(ctx) {
		a.printf("  %s  (%s)\n", bt.Time, bt.ID)
	}
}

func (a *app) history(ctx context.Context, args []string) {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	}
	period, err := history.ParsePeriod(raw)
	if err != nil {
		a.printf("%v\n", err)
		return
	}

	entries, total, err := a.tracker.History(ctx, a.identity(ctx), period)
	if err != nil {
		a.printf("history unavailable: %v\n", err)
		return
	}

	a.mu.Lock()
	a.shown = entries
	a.mu.Unlock()
	a.printEntries(entries)
	a.printf("total this %s: %s\n", period, history.FormatDuration(total))
}

func (a *app) printEntries(entries []model.Entry) {
	if len(entries) == 0 {
		a.printf("no entries\n")
		return
	}
	for i, e := range entries {
		local := e.SwapIn.In(a.now().Location())
		out := "--:--"
		worked := "open"
		if e.SwapOut != nil {
			out = bus.FormatClock(e.SwapOut.In(local.Location()))
		}
		if d, ok := e.Worked(); ok {
			worked = history.FormatDuration(d)
		}
		a.printf("%3d  %s  %s-%s  %s\n", i+1, local.Format("Mon 02 Jan"), bus.FormatClock(local), out, worked)
	}
}

func (a *app) delete(ctx context.Context, args []string) {
	a.mu.Lock()
	shown := a.shown
	a.mu.Unlock()

	ids := make([]string, 0, len(args))
	for _, arg := range args {
		var n int
		if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n < 1 || n > len(shown) {
			a.printf("no entry %q in the last history listing\n", arg)
			return
		}
		ids = append(ids, shown[n-1].ID)
	}
	if len(ids) == 0 {
		a.printf("usage: delete N [N...]\n")
		return
	}

	remaining := a.tracker.DeleteEntries(ctx, shown, ids)
	a.mu.Lock()
	a.shown = remaining
	a.mu.Unlock()
	a.printf("deleted %d\n", len(ids))
	a.printEntries(remaining)
}

func (a *app) exportCommand(ctx context.Context, args []string) {
	if a.export == nil {
		a.printf("export needs the api backend\n")
		return
	}

	period := history.PeriodWeek
	switch len(args) {
	case 1:
	case 2:
		p, err := history.ParsePeriod(args[0])
		if err != nil {
			a.printf("%v\n", err)
			return
		}
		period = p
		args = args[1:]
	default:
		a.printf("usage: export [period] FILE\n")
		return
	}

	data, err := a.export(ctx, string(period))
	if err != nil {
		a.printf("export failed: %v\n", err)
		return
	}
	if err := a.write(args[0], data); err != nil {
		a.printf("write %s: %v\n", args[0], err)
		return
	}
	a.printf("wrote %s\n", args[0])
}
