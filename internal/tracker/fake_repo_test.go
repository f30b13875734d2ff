package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/afero"

	"shifttrack/internal/localstore"
	"shifttrack/internal/model"
)

var errUnavailable = errors.New("remote unavailable")

type patchCall struct {
	id      string
	swapOut time.Time
}

type fakeRepo struct {
	mu      sync.Mutex
	nextID  string
	creates []model.Entry
	patches []patchCall
	deleted []string
	today   *model.Entry
	since   []model.Entry
	failAll bool
	// gate, when set, blocks CreateEntry until it is closed. entered is
	// signalled as CreateEntry starts waiting.
	gate    chan struct{}
	entered chan struct{}
}

func (r *fakeRepo) CreateEntry(ctx context.Context, userID string, swapIn, createdAt time.Time, swapOut *time.Time) (string, error) {
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return "", errUnavailable
	}
	id := r.nextID
	if id == "" {
		id = "entry-" + string(rune('a'+len(r.creates)))
	}
	r.creates = append(r.creates, model.Entry{ID: id, UserID: userID, SwapIn: swapIn, SwapOut: swapOut, CreatedAt: createdAt})
	return id, nil
}

func (r *fakeRepo) PatchSwapOut(_ context.Context, id string, swapOut time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errUnavailable
	}
	r.patches = append(r.patches, patchCall{id: id, swapOut: swapOut})
	return nil
}

func (r *fakeRepo) QueryTodaysEntry(_ context.Context, _ string, _, _ time.Time) (*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errUnavailable
	}
	return r.today, nil
}

func (r *fakeRepo) QueryEntriesSince(_ context.Context, _ string, periodStart time.Time) ([]model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errUnavailable
	}
	out := []model.Entry{}
	for _, e := range r.since {
		if !e.SwapIn.Before(periodStart) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRepo) DeleteEntries(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errUnavailable
	}
	r.deleted = append(r.deleted, ids...)
	return nil
}

func (r *fakeRepo) setFailing(fail bool) {
	r.mu.Lock()
	r.failAll = fail
	r.mu.Unlock()
}

func (r *fakeRepo) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.creates), len(r.patches)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMemStore() localstore.Store {
	return localstore.NewFileStore(afero.NewMemMapFs(), "entry.json", quietLogger())
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingStore logs every slot operation on top of a real store.
type recordingStore struct {
	localstore.Store
	mu  sync.Mutex
	ops []string
}

func (s *recordingStore) Save(entry model.LocalEntry) {
	s.mu.Lock()
	op := "save-active"
	if entry.Complete() {
		op = "save-complete"
	}
	s.ops = append(s.ops, op)
	s.mu.Unlock()
	s.Store.Save(entry)
}

func (s *recordingStore) Clear() {
	s.mu.Lock()
	s.ops = append(s.ops, "clear")
	s.mu.Unlock()
	s.Store.Clear()
}

func (s *recordingStore) since(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops[n:]...)
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}
