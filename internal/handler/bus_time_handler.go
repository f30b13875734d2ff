package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"shifttrack/internal/middleware"
	"shifttrack/internal/realtime"
	"shifttrack/internal/service"
)

type BusTimeHandler struct {
	busTimeService *service.BusTimeService
	hub            *realtime.Hub
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

type putBusTimeRequest struct {
	Time string `json:"time"`
}

func NewBusTimeHandler(busTimeService *service.BusTimeService, hub *realtime.Hub, logger *slog.Logger) *BusTimeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BusTimeHandler{
		busTimeService: busTimeService,
		hub:            hub,
		upgrader: websocket.Upgrader{
			// Browsers are gated by CORS and the bearer token; CLI clients send no Origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *BusTimeHandler) List(c *gin.Context) {
	view, apiErr := h.busTimeService.List(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *BusTimeHandler) Put(c *gin.Context) {
	var req putBusTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	view, apiErr := h.busTimeService.Put(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Time)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *BusTimeHandler) Delete(c *gin.Context) {
	view, apiErr := h.busTimeService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Stream upgrades to a websocket that receives the timetable now and after
// every change.
func (h *BusTimeHandler) Stream(c *gin.Context) {
	userID := middleware.UserID(c)
	view, apiErr := h.busTimeService.List(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "error", err)
		return
	}
	h.hub.Serve(conn, userID, view)
}
