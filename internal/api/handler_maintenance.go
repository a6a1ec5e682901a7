package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ac-maintenance-backend/internal/fault"
	"ac-maintenance-backend/internal/store"
)

// AssetsDue handles GET /api/maintenance/due?days=N.
func (h *Handler) AssetsDue(c *gin.Context) {
	days := h.defaultHorizonDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, fault.Validation("invalid days %q", v))
			return
		}
		days = n
	}
	assets, err := h.scheduler.AssetsDue(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

type generateRequest struct {
	AssetID uint `json:"asset_id" binding:"required"`
}

// GeneratePreventive handles POST /api/maintenance/generate.
func (h *Handler) GeneratePreventive(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validation("invalid payload: %v", err))
		return
	}
	ticket, sched, err := h.scheduler.GeneratePreventiveTicket(c.Request.Context(), req.AssetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"ticket":   ticket,
		"schedule": sched,
	})
}

// CompleteSchedule handles POST /api/maintenance/:id/complete.
func (h *Handler) CompleteSchedule(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validation("invalid payload: %v", err))
		return
	}
	sched, err := h.scheduler.CompleteSchedule(c.Request.Context(), id, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// ListSchedules handles GET /api/maintenance/schedules?filter=.
func (h *Handler) ListSchedules(c *gin.Context) {
	filter := store.ScheduleFilter(c.DefaultQuery("filter", string(store.FilterUpcoming)))
	rows, err := h.scheduler.Schedules(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ListAuditLogs handles GET /api/audit-logs?limit=.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, fault.Validation("invalid limit %q", v))
			return
		}
		limit = n
	}
	logs, err := h.store.ListAuditLogs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
