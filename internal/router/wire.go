package router

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"shifttrack/internal/handler"
	"shifttrack/internal/realtime"
	"shifttrack/internal/repository"
	"shifttrack/internal/service"
)

type ServerConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Location  *time.Location
	Options
}

// NewServer builds the full engine on top of a migrated database.
func NewServer(database *sql.DB, cfg ServerConfig, logger *slog.Logger) *gin.Engine {
	userRepo := repository.NewUserRepository(database)
	entryRepo := repository.NewEntryRepository(database)
	busTimeRepo := repository.NewBusTimeRepository(database)
	hub := realtime.NewHub(logger)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	entryService := service.NewEntryService(entryRepo)
	exportService := service.NewExportService(entryService, cfg.Location)
	busTimeService := service.NewBusTimeService(busTimeRepo, hub)

	return New(authService, Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Entry:   handler.NewEntryHandler(entryService, exportService),
		BusTime: handler.NewBusTimeHandler(busTimeService, hub, logger),
	}, cfg.Options)
}
