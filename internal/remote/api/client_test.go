package api_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"shifttrack/internal/bus"
	"shifttrack/internal/db"
	"shifttrack/internal/history"
	"shifttrack/internal/localstore"
	"shifttrack/internal/model"
	"shifttrack/internal/remote/api"
	"shifttrack/internal/router"
	"shifttrack/internal/tracker"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	engine := router.NewServer(database, router.ServerConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		Location:  time.UTC,
	}, quietLogger())
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T, server *httptest.Server, email string) (*api.Client, model.User) {
	t.Helper()
	client := api.New(server.URL, server.Client(), quietLogger())
	user, err := client.Register(context.Background(), email, "123456")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return client, user
}

func TestClientEntryRoundTrip(t *testing.T) {
	server := newServer(t)
	client, user := newClient(t, server, "client@example.com")
	ctx := context.Background()

	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if client.User().ID != user.ID || user.ID == "" {
		t.Fatalf("unexpected user %+v", client.User())
	}

	swapIn := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	id, err := client.CreateEntry(ctx, "ignored", swapIn, swapIn, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	dayStart, dayEnd := swapIn.Add(-time.Hour), swapIn.Add(time.Hour)
	today, err := client.QueryTodaysEntry(ctx, user.ID, dayStart, dayEnd)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if today == nil || today.ID != id || today.SwapOut != nil {
		t.Fatalf("unexpected today entry %+v", today)
	}

	swapOut := swapIn.Add(30 * time.Minute)
	if err := client.PatchSwapOut(ctx, id, swapOut); err != nil {
		t.Fatalf("patch: %v", err)
	}

	entries, err := client.QueryEntriesSince(ctx, user.ID, swapIn.Add(-time.Minute))
	if err != nil {
		t.Fatalf("since: %v", err)
	}
	if len(entries) != 1 || entries[0].SwapOut == nil || !entries[0].SwapOut.Equal(swapOut) {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if err := client.DeleteEntries(ctx, []string{id}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	today, err = client.QueryTodaysEntry(ctx, user.ID, dayStart, dayEnd)
	if err != nil || today != nil {
		t.Fatalf("expected no entry after delete, got %+v (%v)", today, err)
	}
}

func TestClientErrors(t *testing.T) {
	server := newServer(t)
	client, _ := newClient(t, server, "errors@example.com")

	err := client.PatchSwapOut(context.Background(), "missing", time.Now())
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusNotFound || statusErr.Code != "entry_not_found" {
		t.Fatalf("expected entry_not_found, got %v", err)
	}

	anonymous := api.New(server.URL, server.Client(), quietLogger())
	_, err = anonymous.List(context.Background(), "")
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}

	if _, err := anonymous.Login(context.Background(), "errors@example.com", "wrong-password"); err == nil {
		t.Fatal("expected login failure")
	}
}

func TestClientResume(t *testing.T) {
	server := newServer(t)
	client, user := newClient(t, server, "resume@example.com")

	resumed := api.New(server.URL, server.Client(), quietLogger())
	got, err := resumed.Resume(context.Background(), client.Token())
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got.ID != user.ID || resumed.User().Email != "resume@example.com" {
		t.Fatalf("unexpected resumed user %+v", got)
	}

	rejected := api.New(server.URL, server.Client(), quietLogger())
	if _, err := rejected.Resume(context.Background(), "not-a-token"); err == nil {
		t.Fatal("expected bad token to be rejected")
	}
	if rejected.Token() != "" || rejected.User().ID != "" {
		t.Fatal("rejected token should not be kept")
	}
}

func TestClientBusTimesAndWatch(t *testing.T) {
	server := newServer(t)
	client, user := newClient(t, server, "bus@example.com")
	catalog := bus.NewCatalog(client)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	frames := make(chan []model.BusTime, 4)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- client.WatchBusTimes(ctx, func(times []model.BusTime) {
			frames <- times
		})
	}()

	initial := <-frames
	if len(initial) == 0 {
		t.Fatal("expected seeded timetable")
	}

	if err := catalog.Add(ctx, user.ID, "22:10"); err != nil {
		t.Fatalf("add: %v", err)
	}
	update := <-frames
	if len(update) != len(initial)+1 {
		t.Fatalf("expected one more time, got %d -> %d", len(initial), len(update))
	}

	times, err := catalog.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if next, ok := bus.NextAfter(bus.Times(times), "22:00"); !ok || next != "22:10" {
		t.Fatalf("expected 22:10 next, got %q (%v)", next, ok)
	}

	cancel()
	if err := <-watchErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected watch to end with cancel, got %v", err)
	}
}

func TestClientExport(t *testing.T) {
	server := newServer(t)
	client, _ := newClient(t, server, "export@example.com")

	data, err := client.Export(context.Background(), string(history.PeriodYear))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(data) < 4 || string(data[:2]) != "PK" {
		t.Fatal("expected an xlsx (zip) payload")
	}
}

func TestTrackerSyncsThroughServer(t *testing.T) {
	server := newServer(t)
	client, user := newClient(t, server, "tracker@example.com")

	store := localstore.NewFileStore(afero.NewMemMapFs(), "entry.json", quietLogger())
	tr := tracker.New(client, store, tracker.Options{SyncTimeout: 5 * time.Second, Logger: quietLogger()})
	defer tr.Close()

	identity := tracker.Identity{UserID: user.ID, Online: true}
	if _, err := tr.Start(identity, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	tr.Flush()
	pending, _ := tr.Pending()
	if pending.ID == "" || !pending.Synced {
		t.Fatalf("expected created entry, got %+v", pending)
	}

	if _, ok := tr.Stop(identity); !ok {
		t.Fatal("expected stop to apply")
	}
	tr.Flush()
	if _, ok := store.Load(); ok {
		t.Fatal("expected slot cleared")
	}

	dayStart, dayEnd := history.DayBounds(time.Now())
	remote, err := client.QueryTodaysEntry(context.Background(), user.ID, dayStart, dayEnd)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if remote == nil || remote.ID != pending.ID || remote.SwapOut == nil {
		t.Fatalf("expected completed remote entry, got %+v", remote)
	}

	// A fresh tracker on a new device picks up today's record from the server.
	other := tracker.New(client, localstore.NewFileStore(afero.NewMemMapFs(), "entry.json", quietLogger()), tracker.Options{Logger: quietLogger()})
	defer other.Close()
	other.Load(context.Background(), identity)
	other.Flush()
	if view := other.Snapshot(time.Now()); view.State != tracker.StateCompleted {
		t.Fatalf("expected completed state from remote, got %s", view.State)
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTrackerReloadKeepsSecondShiftActive(t *testing.T) {
	server := newServer(t)
	client, user := newClient(t, server, "evening@example.com")
	store := localstore.NewFileStore(afero.NewMemMapFs(), "entry.json", quietLogger())
	clock := &testClock{now: time.Date(2024, 5, 6, 8, 0, 0, 0, time.Local)}
	identity := tracker.Identity{UserID: user.ID, Online: true}

	tr := tracker.New(client, store, tracker.Options{Logger: quietLogger(), Now: clock.Now})
	defer tr.Close()

	if _, err := tr.Start(identity, ""); err != nil {
		t.Fatalf("morning start: %v", err)
	}
	clock.Advance(3 * time.Hour)
	tr.Stop(identity)
	tr.Flush()
	clock.Advance(7 * time.Hour)
	if _, err := tr.Start(identity, ""); err != nil {
		t.Fatalf("evening start: %v", err)
	}
	tr.Flush()
	evening, _ := tr.Pending()
	if evening.ID == "" {
		t.Fatalf("evening shift not synced: %+v", evening)
	}

	restarted := tracker.New(client, store, tracker.Options{Logger: quietLogger(), Now: clock.Now})
	defer restarted.Close()
	restarted.Load(context.Background(), identity)
	restarted.Flush()

	pending, ok := restarted.Pending()
	if !ok || pending.ID != evening.ID || restarted.Snapshot(clock.Now()).State != tracker.StateActive {
		t.Fatalf("expected active evening shift %s after reload, got %+v", evening.ID, pending)
	}
	if slot, ok := store.Load(); !ok || slot.ID != evening.ID {
		t.Fatalf("expected evening shift kept in slot, got %+v (%v)", slot, ok)
	}
	if _, ok := restarted.Stop(identity); !ok {
		t.Fatal("reloaded evening shift must still be stoppable")
	}
}
