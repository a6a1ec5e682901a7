package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"ac-maintenance-backend/internal/fault"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/mw"
)

// ListTickets handles GET /api/tickets with an optional ?status= filter.
func (h *Handler) ListTickets(c *gin.Context) {
	tickets, err := h.store.ListTickets(c.Request.Context(), model.TicketStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// GetTicket handles GET /api/tickets/:id.
func (h *Handler) GetTicket(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ticket, err := h.store.GetTicket(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

type validateRequest struct {
	Valid bool   `json:"valid"`
	Notes string `json:"notes"`
}

// ValidateTicket handles POST /api/tickets/:id/validate.
func (h *Handler) ValidateTicket(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validation("invalid payload: %v", err))
		return
	}
	ticket, err := h.workflow.Validate(c.Request.Context(), mw.ActorFrom(c), id, req.Valid, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

type assignRequest struct {
	TechnicianID string `json:"technician_id" binding:"required"`
}

// AssignTicket handles POST /api/tickets/:id/assign.
func (h *Handler) AssignTicket(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validation("invalid payload: %v", err))
		return
	}
	ticket, err := h.workflow.Assign(c.Request.Context(), mw.ActorFrom(c), id, req.TechnicianID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// StartTicket handles POST /api/tickets/:id/start.
func (h *Handler) StartTicket(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ticket, err := h.workflow.StartWork(c.Request.Context(), mw.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

type submitRequest struct {
	Notes      string          `json:"notes"`
	RepairCost decimal.Decimal `json:"repair_cost"`
}

// SubmitTicket handles POST /api/tickets/:id/submit.
func (h *Handler) SubmitTicket(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validation("invalid payload: %v", err))
		return
	}
	ticket, err := h.workflow.SubmitForVerification(c.Request.Context(), mw.ActorFrom(c), id, req.Notes, req.RepairCost)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// VerifyTicket handles POST /api/tickets/:id/verify.
func (h *Handler) VerifyTicket(c *gin.Context) {
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
	ticket, err := h.workflow.Verify(c.Request.Context(), mw.ActorFrom(c), id, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// CloseTicket handles POST /api/tickets/:id/close.
func (h *Handler) CloseTicket(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	ticket, err := h.workflow.Close(c.Request.Context(), mw.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelTicket handles POST /api/tickets/:id/cancel.
func (h *Handler) CancelTicket(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validation("invalid payload: %v", err))
		return
	}
	ticket, err := h.workflow.Cancel(c.Request.Context(), mw.ActorFrom(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
