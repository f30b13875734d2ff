package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"shifttrack/internal/bus"
	"shifttrack/internal/config"
	"shifttrack/internal/localstore"
	"shifttrack/internal/model"
	"shifttrack/internal/remote/api"
	"shifttrack/internal/remote/firestore"
	"shifttrack/internal/tracker"
)

type remote interface {
	tracker.EntryRepository
	bus.Repository
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.LoadClient()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openLocalStore(cfg, logger)
	defer closeStore()

	a := &app{
		out:   os.Stdout,
		now:   time.Now,
		write: func(name string, data []byte) error { return afero.WriteFile(afero.NewOsFs(), name, data, 0o644) },
	}

	var repo remote
	switch cfg.Backend {
	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, cfg.CredentialsFile)
		if err != nil {
			log.Fatalf("open firestore: %v", err)
		}
		defer client.Close()

		entries := firestore.NewEntryRepository(client)
		busTimes := firestore.NewBusTimeRepository(client)
		repo = struct {
			*firestore.EntryRepository
			*firestore.BusTimeRepository
		}{entries, busTimes}
		a.identity = func(context.Context) tracker.Identity {
			return tracker.Identity{UserID: cfg.UserID, Online: cfg.UserID != ""}
		}
	case config.BackendAPI:
		client := api.New(cfg.APIURL, &http.Client{Timeout: cfg.SyncTimeout}, logger)
		signIn(ctx, client, cfg, logger)
		repo = client
		a.export = client.Export
		a.identity = func(ctx context.Context) tracker.Identity {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return tracker.Identity{UserID: client.User().ID, Online: client.Ping(pingCtx) == nil}
		}
		if client.User().ID != "" {
			go watchBusTimes(ctx, client, a, logger)
		}
	default:
		log.Fatalf("unknown TRACKER_BACKEND %q", cfg.Backend)
	}

	a.tracker = tracker.New(repo, store, tracker.Options{SyncTimeout: cfg.SyncTimeout, Logger: logger})
	defer a.tracker.Close()
	a.catalog = bus.NewCatalog(repo)

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				a.tick(now)
			}
		}
	}()

	if err := a.run(ctx, os.Stdin); err != nil {
		log.Printf("read input: %v", err)
	}
}

func openLocalStore(cfg config.ClientConfig, logger *slog.Logger) (localstore.Store, func()) {
	switch cfg.LocalStore {
	case config.LocalStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return localstore.NewRedisStore(client, cfg.LocalStoreKey, logger), func() { _ = client.Close() }
	case config.LocalStoreFile:
		return localstore.NewFileStore(afero.NewOsFs(), cfg.LocalStorePath, logger), func() {}
	default:
		log.Fatalf("unknown LOCAL_STORE %q", cfg.LocalStore)
		return nil, nil
	}
}

func watchBusTimes(ctx context.Context, client *api.Client, a *app, logger *slog.Logger) {
	for {
		err := client.WatchBusTimes(ctx, func(times []model.BusTime) {
			a.setBusTimes(times)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("bus time stream closed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}

// signIn prefers a saved token and falls back to email and password.
func signIn(ctx context.Context, client *api.Client, cfg config.ClientConfig, logger *slog.Logger) {
	if cfg.Token != "" {
		_, err := client.Resume(ctx, cfg.Token)
		if err == nil {
			return
		}
		logger.Warn("saved token rejected", "error", err)
	}
	if cfg.Email == "" {
		return
	}
	if _, err := client.Login(ctx, cfg.Email, cfg.Password); err != nil {
		logger.Warn("login failed, working offline", "error", err)
	}
}
