package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/woosync/backend/internal/domain"
	"go.uber.org/zap"
)

// SyncService is the part of the run orchestration the HTTP layer needs
type SyncService interface {
	RunManual(ctx context.Context, ids []int64, withImagesOnly bool) (*domain.RunSummary, error)
	LastRun() *domain.RunSummary
}

// Pinger verifies connectivity of one remote API
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	sync    SyncService
	catalog Pinger
	content Pinger
	log     *zap.SugaredLogger
}

// NewHandler creates a new HTTP handler. catalog and content may be nil
// when the corresponding API is not configured.
func NewHandler(sync SyncService, catalog, content Pinger, log *zap.SugaredLogger) *Handler {
	return &Handler{sync: sync, catalog: catalog, content: content, log: log}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "woosync-backend",
		"version": "1.0.0",
	})
}

// syncRequest is the optional body of a manual sync trigger
type syncRequest struct {
	ProductIDs     []int64 `json:"productIds"`
	WithImagesOnly bool    `json:"withImagesOnly"`
}

// TriggerSync starts a manual sync run and returns its summary. The run is
// synchronous: the response carries the final counts.
func (h *Handler) TriggerSync(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	summary, err := h.sync.RunManual(c.Request.Context(), req.ProductIDs, req.WithImagesOnly)
	if err != nil {
		if errors.Is(err, domain.ErrNothingToSync) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no matching products to sync"})
			return
		}
		h.log.Errorw("manual sync failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync run failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// LastRun returns the summary of the most recent finished run
func (h *Handler) LastRun(c *gin.Context) {
	summary := h.sync.LastRun()
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync run has finished yet"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// TestConnection probes both remote APIs and reports per-API status
func (h *Handler) TestConnection(c *gin.Context) {
	ctx := c.Request.Context()
	result := gin.H{
		"catalog": h.pingStatus(ctx, h.catalog),
		"content": h.pingStatus(ctx, h.content),
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) pingStatus(ctx context.Context, p Pinger) gin.H {
	if p == nil {
		return gin.H{"configured": false}
	}
	if err := p.Ping(ctx); err != nil {
		return gin.H{"configured": true, "ok": false, "error": err.Error()}
	}
	return gin.H{"configured": true, "ok": true}
}
