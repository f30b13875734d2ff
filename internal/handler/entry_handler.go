package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/history"
	"shifttrack/internal/middleware"
	"shifttrack/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type EntryHandler struct {
	entryService  *service.EntryService
	exportService *service.ExportService
}

type createEntryRequest struct {
	SwapIn    time.Time  `json:"swapIn"`
	CreatedAt *time.Time `json:"createdAt"`
	SwapOut   *time.Time `json:"swapOut"`
}

type patchEntryRequest struct {
	SwapOut time.Time `json:"swapOut"`
}

type deleteEntriesRequest struct {
	IDs []string `json:"ids"`
}

func NewEntryHandler(entryService *service.EntryService, exportService *service.ExportService) *EntryHandler {
	return &EntryHandler{entryService: entryService, exportService: exportService}
}

func (h *EntryHandler) Create(c *gin.Context) {
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	entry, apiErr := h.entryService.Create(c.Request.Context(), middleware.UserID(c), service.CreateEntryInput{
		SwapIn:    req.SwapIn,
		CreatedAt: req.CreatedAt,
		SwapOut:   req.SwapOut,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

func (h *EntryHandler) PatchSwapOut(c *gin.Context) {
	var req patchEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	entry, apiErr := h.entryService.SetSwapOut(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.SwapOut)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

func (h *EntryHandler) Today(c *gin.Context) {
	start, apiErr := queryTime(c, "start")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	end, apiErr := queryTime(c, "end")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	entry, apiErr := h.entryService.Today(c.Request.Context(), middleware.UserID(c), start, end)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// List accepts either since (RFC 3339) or period; since wins.
func (h *EntryHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)

	if c.Query("since") != "" {
		since, apiErr := queryTime(c, "since")
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}
		list, apiErr := h.entryService.ListSince(c.Request.Context(), userID, since)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}
		c.JSON(http.StatusOK, list)
		return
	}

	period, err := history.ParsePeriod(c.Query("period"))
	if err != nil {
		writeError(c, apperrors.BadRequest("invalid_period", err.Error()))
		return
	}
	list, apiErr := h.entryService.ListPeriod(c.Request.Context(), userID, period)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *EntryHandler) Delete(c *gin.Context) {
	var req deleteEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	deleted, apiErr := h.entryService.Delete(c.Request.Context(), middleware.UserID(c), req.IDs)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *EntryHandler) Export(c *gin.Context) {
	period, err := history.ParsePeriod(c.Query("period"))
	if err != nil {
		writeError(c, apperrors.BadRequest("invalid_period", err.Error()))
		return
	}

	data, apiErr := h.exportService.Workbook(c.Request.Context(), middleware.UserID(c), period)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	filename := fmt.Sprintf("shifts-%s-%s.xlsx", period, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func queryTime(c *gin.Context, key string) (time.Time, *apperrors.APIError) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, apperrors.BadRequest("invalid_"+key, key+" is required")
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, apperrors.BadRequest("invalid_"+key, key+" must be an RFC 3339 time")
	}
	return parsed, nil
}
