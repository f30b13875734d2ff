package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/history"
	"shifttrack/internal/localstore"
	"shifttrack/internal/model"
	"shifttrack/pkg/workerpool"
)

type Options struct {
	SyncTimeout time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// Tracker owns the local slot and drives the shift session. State changes
// are written to the slot first and then reconciled on a single background
// worker, so at most one remote write for the slot is in flight.
type Tracker struct {
	mu         sync.Mutex
	session    *Session
	confirmed  *model.LocalEntry
	lastResult Result

	store      localstore.Store
	repo       EntryRepository
	reconciler *Reconciler
	pool       *workerpool.WorkerPool
	timeout    time.Duration
	logger     *slog.Logger
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func New(repo EntryRepository, store localstore.Store, opts Options) *Tracker {
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = DefaultSyncTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	// syncJob persists reconcile results itself, under mu.
	reconciler := NewReconciler(repo, nil, opts.SyncTimeout, opts.Logger)
	reconciler.now = opts.Now

	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		session:    NewSession(nil),
		store:      store,
		repo:       repo,
		reconciler: reconciler,
		pool:       workerpool.NewWorkerPool(1, 16),
		timeout:    opts.SyncTimeout,
		logger:     opts.Logger,
		now:        opts.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Close finishes queued sync jobs and stops the worker.
func (t *Tracker) Close() {
	t.pool.Close()
	t.cancel()
}

// Flush blocks until every queued sync job has run.
func (t *Tracker) Flush() {
	t.pool.Wait()
}

// Load restores the pending entry from the local slot, then lets today's
// remote record replace it when one exists.
func (t *Tracker) Load(ctx context.Context, identity Identity) {
	t.mu.Lock()
	if local, ok := t.store.Load(); ok {
		t.session.Replace(&local)
	}
	t.mu.Unlock()

	if identity.Online && identity.UserID != "" {
		dayStart, dayEnd := history.DayBounds(t.now())
		callCtx, cancel := context.WithTimeout(ctx, t.timeout)
		remote, err := t.repo.QueryTodaysEntry(callCtx, identity.UserID, dayStart, dayEnd)
		cancel()

		switch {
		case err != nil:
			t.logger.Warn("load today's entry", "error", apperrors.Repository("query today's entry", err))
		case remote != nil:
			t.adoptRemote(*remote)
		}
	}

	t.enqueueSync(identity)
}

func (t *Tracker) adoptRemote(remote model.Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	confirmed := model.LocalFromRemote(remote)
	next := confirmed.Clone()
	if local, ok := t.session.Entry(); ok && local.ID == remote.ID && remote.SwapOut == nil && local.SwapOut != nil {
		// Keep a swap-out the remote has not received yet.
		next.SwapOut = local.SwapOut
		next.Synced = false
		next.SwapOutSynced = false
	}

	t.session.Replace(&next)
	t.confirmed = &confirmed
	if next.Complete() {
		t.store.Clear()
	} else {
		t.store.Save(next)
	}
}

// Start begins a shift now, or at customTime (HH:MM today) when given. An
// invalid customTime, or a shift that is already active, is rejected before
// anything changes.
func (t *Tracker) Start(identity Identity, customTime string) (model.LocalEntry, error) {
	t.mu.Lock()
	entry, err := t.session.Start(t.now(), customTime, identity.UserID)
	if err != nil {
		t.mu.Unlock()
		return model.LocalEntry{}, err
	}
	t.confirmed = nil
	t.store.Save(entry)
	t.mu.Unlock()

	t.enqueueSync(identity)
	return entry, nil
}

// Stop ends the active shift. It reports false, and changes nothing, when no
// shift is active.
func (t *Tracker) Stop(identity Identity) (model.LocalEntry, bool) {
	t.mu.Lock()
	entry, err := t.session.Stop(t.now())
	if err != nil {
		t.mu.Unlock()
		return model.LocalEntry{}, false
	}
	// A finished shift never stays in the slot; the session keeps it until
	// the patch goes out.
	t.store.Clear()
	t.mu.Unlock()

	t.enqueueSync(identity)
	return entry, true
}

// Sync runs one reconcile pass and waits for it. Queued passes run first.
func (t *Tracker) Sync(ctx context.Context, identity Identity) Result {
	resCh := make(chan workerpool.Result, 1)
	err := t.pool.Submit(workerpool.Task{
		Fn: func() (any, error) {
			return t.syncJob(identity), nil
		},
		ResultC: resCh,
	})
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	select {
	case res := <-resCh:
		return res.Value.(Result)
	case <-ctx.Done():
		return Result{Outcome: OutcomeFailed, Err: ctx.Err()}
	}
}

func (t *Tracker) enqueueSync(identity Identity) {
	err := t.pool.Submit(workerpool.Task{
		Fn: func() (any, error) {
			t.syncJob(identity)
			return nil, nil
		},
	})
	if err != nil {
		t.logger.Warn("queue entry sync", "error", err)
	}
}

func (t *Tracker) syncJob(identity Identity) Result {
	t.mu.Lock()
	entry, ok := t.session.Entry()
	t.mu.Unlock()
	if !ok {
		return Result{Outcome: OutcomeNothingToDo}
	}

	out, result := t.reconciler.Reconcile(t.ctx, entry, identity)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastResult = result

	current, ok := t.session.Entry()
	if !ok || !sameSession(current, entry) {
		// A new shift replaced this one mid-flight. The synced record stays
		// remote as history; put the slot back to the current shift.
		if result.Wrote() {
			if ok && !current.Complete() {
				t.store.Save(current)
			} else {
				t.store.Clear()
			}
		}
		return result
	}

	if result.Wrote() {
		current.ID = out.ID
		current.UserID = out.UserID
		if sameTime(current.SwapOut, entry.SwapOut) {
			current.Synced = out.Synced
			current.SwapOutSynced = out.SwapOutSynced
		}
		t.session.Replace(&current)
		confirmed := out.Clone()
		t.confirmed = &confirmed
		if !current.Complete() {
			t.store.Save(current)
		}
	}
	if current.Complete() {
		t.store.Clear()
	}
	return result
}

// View is the derived display state at a given instant.
type View struct {
	State           State
	SwapIn          *time.Time
	SwapOut         *time.Time
	Elapsed         time.Duration
	Remaining       time.Duration
	Progress        float64
	DurationReached bool
	Synced          bool
}

func (t *Tracker) Snapshot(now time.Time) View {
	t.mu.Lock()
	entry, ok := t.session.Entry()
	t.mu.Unlock()

	view := View{State: StateOf(nil)}
	if !ok {
		return view
	}
	view.State = StateOf(&entry)
	view.SwapIn = entry.SwapIn
	view.SwapOut = entry.SwapOut
	view.Synced = entry.Synced

	switch view.State {
	case StateActive:
		view.Elapsed = Elapsed(now, *entry.SwapIn)
		view.Remaining = Remaining(now, *entry.SwapIn)
		view.Progress = Progress(now, *entry.SwapIn)
	case StateCompleted:
		view.Elapsed = Elapsed(*entry.SwapOut, *entry.SwapIn)
		view.Remaining = Remaining(*entry.SwapOut, *entry.SwapIn)
		view.Progress = Progress(*entry.SwapOut, *entry.SwapIn)
	}
	view.DurationReached = view.Progress >= 1
	return view
}

// Pending is the optimistic local view of the current entry.
func (t *Tracker) Pending() (model.LocalEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Entry()
}

// Confirmed is the entry as last acknowledged by the remote store.
func (t *Tracker) Confirmed() (model.LocalEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.confirmed == nil {
		return model.LocalEntry{}, false
	}
	return t.confirmed.Clone(), true
}

func (t *Tracker) LastResult() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastResult
}

// History lists the user's entries since the start of period, newest first,
// with the total time worked.
func (t *Tracker) History(ctx context.Context, identity Identity, period history.Period) ([]model.Entry, time.Duration, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	entries, err := t.repo.QueryEntriesSince(callCtx, identity.UserID, history.Start(period, t.now()))
	if err != nil {
		return nil, 0, apperrors.Repository("query entries", err)
	}
	return entries, history.TotalWorked(entries), nil
}

// DeleteEntries removes ids from shown and then deletes them remotely. A
// remote failure is logged; the caller's view has already moved on.
func (t *Tracker) DeleteEntries(ctx context.Context, shown []model.Entry, ids []string) []model.Entry {
	remaining := history.Remove(shown, ids)

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if err := t.repo.DeleteEntries(callCtx, ids); err != nil {
		t.logger.Warn("delete entries", "ids", ids, "error", apperrors.Repository("delete entries", err))
	}
	return remaining
}

func sameSession(a, b model.LocalEntry) bool {
	return sameTime(a.SwapIn, b.SwapIn)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
