package tracker

import (
	"context"
	"log/slog"
	"time"

	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/localstore"
	"shifttrack/internal/model"
)

const DefaultSyncTimeout = 10 * time.Second

// EntryRepository is the remote side of the sync.
type EntryRepository interface {
	CreateEntry(ctx context.Context, userID string, swapIn, createdAt time.Time, swapOut *time.Time) (string, error)
	PatchSwapOut(ctx context.Context, id string, swapOut time.Time) error
	QueryTodaysEntry(ctx context.Context, userID string, dayStart, dayEnd time.Time) (*model.Entry, error)
	QueryEntriesSince(ctx context.Context, userID string, periodStart time.Time) ([]model.Entry, error)
	DeleteEntries(ctx context.Context, ids []string) error
}

// Identity is who is acting and whether the remote store is reachable.
type Identity struct {
	UserID string
	Online bool
}

type Outcome int

const (
	OutcomeSkippedOffline Outcome = iota
	OutcomeSkippedNoUser
	OutcomeAlreadySynced
	OutcomeNothingToDo
	OutcomeCreated
	OutcomePatched
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkippedOffline:
		return "skipped_offline"
	case OutcomeSkippedNoUser:
		return "skipped_no_user"
	case OutcomeAlreadySynced:
		return "already_synced"
	case OutcomeNothingToDo:
		return "nothing_to_do"
	case OutcomeCreated:
		return "created"
	case OutcomePatched:
		return "patched"
	default:
		return "failed"
	}
}

// Result is what a reconcile attempt did. Err is set only for OutcomeFailed.
type Result struct {
	Outcome Outcome
	Err     error
}

// Wrote reports whether the remote store changed.
func (r Result) Wrote() bool {
	return r.Outcome == OutcomeCreated || r.Outcome == OutcomePatched
}

// Reconciler decides what, if anything, the remote store is missing for an
// entry and sends it. It makes at most one remote write per call.
type Reconciler struct {
	repo    EntryRepository
	store   localstore.Store
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewReconciler builds a Reconciler. store may be nil when the caller
// persists the returned entry itself.
func NewReconciler(repo EntryRepository, store localstore.Store, timeout time.Duration, logger *slog.Logger) *Reconciler {
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		repo:    repo,
		store:   store,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Reconcile returns the entry with its sync flags updated. Failures leave the
// flags untouched and are reported in the Result, never as a panic or error
// return; the next call retries from the top.
func (r *Reconciler) Reconcile(ctx context.Context, entry model.LocalEntry, identity Identity) (model.LocalEntry, Result) {
	result := r.reconcile(ctx, &entry, identity)

	attrs := []any{"outcome", result.Outcome.String(), "entry_id", entry.ID}
	switch {
	case result.Err != nil:
		r.logger.Warn("entry sync failed", append(attrs, "error", result.Err)...)
	case result.Wrote():
		r.logger.Info("entry synced", attrs...)
	default:
		r.logger.Debug("entry sync skipped", attrs...)
	}
	return entry, result
}

func (r *Reconciler) reconcile(ctx context.Context, entry *model.LocalEntry, identity Identity) Result {
	if !identity.Online {
		return Result{Outcome: OutcomeSkippedOffline}
	}
	if identity.UserID == "" {
		return Result{Outcome: OutcomeSkippedNoUser}
	}
	if entry.Synced {
		return Result{Outcome: OutcomeAlreadySynced}
	}

	switch {
	case entry.ID == "" && entry.SwapIn != nil:
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		id, err := r.repo.CreateEntry(callCtx, identity.UserID, *entry.SwapIn, r.now(), entry.SwapOut)
		if err != nil {
			return Result{Outcome: OutcomeFailed, Err: apperrors.Repository("create entry", err)}
		}
		entry.ID = id
		if entry.UserID == "" {
			entry.UserID = identity.UserID
		}
		entry.Synced = true
		if entry.SwapOut != nil {
			entry.SwapOutSynced = true
		}
		r.persist(*entry)
		return Result{Outcome: OutcomeCreated}

	case entry.ID != "" && entry.SwapOut != nil && !entry.SwapOutSynced:
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		if err := r.repo.PatchSwapOut(callCtx, entry.ID, *entry.SwapOut); err != nil {
			return Result{Outcome: OutcomeFailed, Err: apperrors.Repository("patch swap out", err)}
		}
		entry.SwapOutSynced = true
		entry.Synced = true
		r.persist(*entry)
		return Result{Outcome: OutcomePatched}
	}

	return Result{Outcome: OutcomeNothingToDo}
}

func (r *Reconciler) persist(entry model.LocalEntry) {
	if r.store != nil {
		r.store.Save(entry)
	}
}
