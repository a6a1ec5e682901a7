package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"ac-maintenance-backend/config"
	"ac-maintenance-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// Unauthenticated reporting surface, rate limited per IP.
	public := r.Group("/api/public")
	public.Use(rateLimiter)
	{
		public.POST("/reports", h.CreateReport)
		public.GET("/reports/:reference", h.GetReportByReference)
	}

	// Operator surface. Identity arrives via actor headers; roles are
	// enforced inside the workflow.
	api := r.Group("/api")
	api.Use(mw.Actor())
	{
		api.GET("/assets", caching, h.ListAssets)
		api.POST("/assets", h.CreateAsset)
		api.GET("/assets/:id", h.GetAsset)
		api.PUT("/assets/:id", h.UpdateAsset)
		api.POST("/assets/:id/dispose", h.DisposeAsset)

		api.GET("/tickets", h.ListTickets)
		api.GET("/tickets/:id", h.GetTicket)
		api.POST("/tickets/:id/validate", h.ValidateTicket)
		api.POST("/tickets/:id/assign", h.AssignTicket)
		api.POST("/tickets/:id/start", h.StartTicket)
		api.POST("/tickets/:id/submit", h.SubmitTicket)
		api.POST("/tickets/:id/verify", h.VerifyTicket)
		api.POST("/tickets/:id/close", h.CloseTicket)
		api.POST("/tickets/:id/cancel", h.CancelTicket)

		api.GET("/maintenance/due", h.AssetsDue)
		api.POST("/maintenance/generate", h.GeneratePreventive)
		api.POST("/maintenance/:id/complete", h.CompleteSchedule)
		api.GET("/maintenance/schedules", caching, h.ListSchedules)

		api.GET("/audit-logs", h.ListAuditLogs)
	}

	return r
}
