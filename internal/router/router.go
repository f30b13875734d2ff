package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shifttrack/internal/handler"
	"shifttrack/internal/middleware"
	"shifttrack/internal/service"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Entry   *handler.EntryHandler
	BusTime *handler.BusTimeHandler
}

type Options struct {
	CORSOrigins   []string
	AuthRateRPS   float64
	AuthRateBurst int
}

func New(authService *service.AuthService, handlers Handlers, opts Options) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(opts.CORSOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	if opts.AuthRateRPS > 0 {
		auth.Use(middleware.RateLimit(opts.AuthRateRPS, opts.AuthRateBurst))
	}
	auth.POST("/register", handlers.Auth.Register)
	auth.POST("/login", handlers.Auth.Login)
	api.GET("/auth/me", middleware.Auth(authService), handlers.Auth.Me)

	entries := api.Group("/entries")
	entries.Use(middleware.Auth(authService))
	entries.POST("", handlers.Entry.Create)
	entries.GET("", handlers.Entry.List)
	entries.DELETE("", handlers.Entry.Delete)
	entries.GET("/today", handlers.Entry.Today)
	entries.GET("/export", handlers.Entry.Export)
	entries.PATCH("/:id", handlers.Entry.PatchSwapOut)

	busTimes := api.Group("/bus-times")
	busTimes.Use(middleware.Auth(authService))
	busTimes.GET("", handlers.BusTime.List)
	busTimes.GET("/stream", handlers.BusTime.Stream)
	busTimes.PUT("/:id", handlers.BusTime.Put)
	busTimes.DELETE("/:id", handlers.BusTime.Delete)

	return engine
}
