package web

import (
	"net/http"

	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	svc    ScheduleService
	logger logger.Logger
}

func NewHistoryHandler(svc ScheduleService, log logger.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, logger: log}
}

func (h *HistoryHandler) ListBySchedule(c *gin.Context) {
	page, size := getPage(c)
	res, err := h.svc.ListHistory(c.Request.Context(), c.Param("id"), page, size)
	if err != nil {
		respondError(c, h.logger, "Failed to list history", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *HistoryHandler) ListByOwner(c *gin.Context) {
	status := state.ExecutionStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status", "allowed": state.AllStatuses})
		return
	}
	page, size := getPage(c)

	res, err := h.svc.ListOwnerHistory(c.Request.Context(), c.Param("owner"), status, page, size)
	if err != nil {
		respondError(c, h.logger, "Failed to list history", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *HistoryHandler) DeleteEntry(c *gin.Context) {
	if err := h.svc.DeleteHistoryEntry(c.Request.Context(), c.Param("owner"), c.Param("entry")); err != nil {
		respondError(c, h.logger, "Failed to delete history entry", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HistoryHandler) DeleteBySchedule(c *gin.Context) {
	n, err := h.svc.DeleteScheduleHistory(c.Request.Context(), c.Param("owner"), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "Failed to delete schedule history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
