package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ac-maintenance-backend/internal/fault"
	"ac-maintenance-backend/internal/workflow"
)

type createReportRequest struct {
	AssetID       uint   `json:"asset_id" binding:"required"`
	ReporterNIK   string `json:"reporter_nik"`
	ReporterName  string `json:"reporter_name" binding:"required"`
	IssueCategory string `json:"issue_category" binding:"required"`
	Description   string `json:"description"`
	PhotoURL      string `json:"photo_url"`
}

// CreateReport handles POST /api/public/reports. The reporter gets back a
// tracking reference to poll.
func (h *Handler) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validation("invalid report payload: %v", err))
		return
	}

	actor := workflow.Actor{NIK: req.ReporterNIK, Name: req.ReporterName, Role: workflow.RoleReporter}
	ticket, err := h.workflow.CreateFaultReport(c.Request.Context(), actor, workflow.FaultReport{
		AssetID:       req.AssetID,
		IssueCategory: req.IssueCategory,
		Description:   req.Description,
		PhotoURL:      req.PhotoURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reference": ticket.Reference,
		"status":    ticket.Status,
	})
}

// GetReportByReference handles GET /api/public/reports/:reference. Only
// the fields a reporter needs are exposed.
func (h *Handler) GetReportByReference(c *gin.Context) {
	ticket, err := h.store.GetTicketByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference":      ticket.Reference,
		"status":         ticket.Status,
		"issue_category": ticket.IssueCategory,
		"created_at":     ticket.CreatedAt,
		"completed_at":   ticket.CompletedAt,
	})
}
