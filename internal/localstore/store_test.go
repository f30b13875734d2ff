package localstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleEntry() model.LocalEntry {
	swapIn := time.Date(2024, 5, 6, 14, 0, 0, 0, time.UTC)
	return model.LocalEntry{ID: "abc", SwapIn: &swapIn, Synced: true}
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return NewRedisStore(client, "", quietLogger()), server
}

func TestStoresRoundTrip(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"file":  NewFileStore(afero.NewMemMapFs(), "data/entry.json", quietLogger()),
		"redis": redisStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			if _, ok := store.Load(); ok {
				t.Fatal("expected empty slot")
			}

			entry := sampleEntry()
			store.Save(entry)
			got, ok := store.Load()
			if !ok {
				t.Fatal("expected stored entry")
			}
			if got.ID != "abc" || !got.Synced || got.SwapOut != nil || !got.SwapIn.Equal(*entry.SwapIn) {
				t.Fatalf("unexpected entry %+v", got)
			}

			swapOut := entry.SwapIn.Add(time.Hour)
			entry.SwapOut = &swapOut
			entry.Synced = false
			store.Save(entry)
			got, _ = store.Load()
			if got.SwapOut == nil || got.Synced {
				t.Fatalf("expected overwrite, got %+v", got)
			}

			store.Clear()
			if _, ok := store.Load(); ok {
				t.Fatal("expected slot to be cleared")
			}
			store.Clear()
		})
	}
}

func TestFileStoreConcurrentSaves(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewFileStore(fsys, "data/entry.json", quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry := sampleEntry()
			entry.ID = fmt.Sprintf("entry-%d", i)
			store.Save(entry)
		}(i)
	}
	wg.Wait()

	got, ok := store.Load()
	if !ok || got.SwapIn == nil || len(got.ID) < len("entry-0") {
		t.Fatalf("expected one whole entry after concurrent saves, got %+v (%v)", got, ok)
	}
	files, err := afero.ReadDir(fsys, "data")
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(files) != 1 || files[0].Name() != "entry.json" {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name())
		}
		t.Fatalf("expected only the slot file, got %v", names)
	}
}

func TestFileStoreTreatsCorruptDataAsEmpty(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewFileStore(fsys, "entry.json", quietLogger())

	for _, raw := range []string{"{not json", `{"swapIn":"yesterday"}`, `{"swapIn":null}`} {
		if err := afero.WriteFile(fsys, "entry.json", []byte(raw), 0o600); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if _, ok := store.Load(); ok {
			t.Fatalf("expected %q to load as empty", raw)
		}
	}
}

func TestRedisStoreTreatsCorruptDataAsEmpty(t *testing.T) {
	store, server := newRedisStore(t)
	if err := server.Set(DefaultKey, "\x00garbage"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := store.Load(); ok {
		t.Fatal("expected corrupt value to load as empty")
	}
}

func TestSaveSwallowsFailures(t *testing.T) {
	store := NewFileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "entry.json", quietLogger())
	store.Save(sampleEntry())
	store.Clear()
	if _, ok := store.Load(); ok {
		t.Fatal("expected nothing to be stored on a read-only fs")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, server := newRedisStore(t)
	server.Close()

	store.Save(sampleEntry())
	if _, ok := store.Load(); ok {
		t.Fatal("expected empty slot while redis is down")
	}
	store.Clear()
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := decode([]byte("[]")); !errors.Is(err, apperrors.ErrMalformedLocalData) {
		t.Fatalf("expected malformed data error, got %v", err)
	}
}
