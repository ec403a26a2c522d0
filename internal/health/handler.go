// Package health serves the unauthenticated probe endpoints.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/logger"
)

const pingTimeout = 3 * time.Second

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	db        Pinger
	version   string
	startedAt time.Time
	now       func() time.Time
}

func NewHandler(db Pinger, version string) *Handler {
	return &Handler{
		db:        db,
		version:   version,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Uptime    float64   `json:"uptime"`
	Version   string    `json:"version"`
}

func (h *Handler) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.db.Ping(ctx)
}

// Health reports process and database status.
func (h *Handler) Health(c *gin.Context) {
	now := h.now()
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: now.UTC(),
		Database:  "connected",
		Uptime:    now.Sub(h.startedAt).Seconds(),
		Version:   h.version,
	}

	if err := h.ping(c.Request.Context()); err != nil {
		logger.WithContext(c.Request.Context()).Error("health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ready succeeds only when the database answers.
func (h *Handler) Ready(c *gin.Context) {
	if err := h.ping(c.Request.Context()); err != nil {
		logger.WithContext(c.Request.Context()).Warn("readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Live always succeeds while the process is serving.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// RegisterRoutes mounts the probes on r.
func RegisterRoutes(r gin.IRoutes, h *Handler) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/live", h.Live)
}
