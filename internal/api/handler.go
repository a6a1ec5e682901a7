package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ac-maintenance-backend/internal/fault"
	"ac-maintenance-backend/internal/ledger"
	"ac-maintenance-backend/internal/scheduler"
	"ac-maintenance-backend/internal/store"
	"ac-maintenance-backend/internal/workflow"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	workflow  *workflow.Workflow
	ledger    *ledger.Ledger
	scheduler *scheduler.Scheduler

	defaultHorizonDays int
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, wf *workflow.Workflow, l *ledger.Ledger, sched *scheduler.Scheduler, defaultHorizonDays int) *Handler {
	return &Handler{
		store:              s,
		workflow:           wf,
		ledger:             l,
		scheduler:          sched,
		defaultHorizonDays: defaultHorizonDays,
	}
}

// respondError maps the fault taxonomy to HTTP status codes.
func respondError(c *gin.Context, err error) {
	var code int
	switch {
	case fault.IsValidation(err):
		code = http.StatusBadRequest
	case fault.IsNotFound(err):
		code = http.StatusNotFound
	case fault.IsDenied(err):
		code = http.StatusForbidden
	case fault.IsInvalidTransition(err):
		code = http.StatusConflict
	default:
		logrus.WithError(err).Error("request failed")
		code = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}
