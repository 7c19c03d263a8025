package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the liveness endpoint
type SystemHandler struct {
	BaseHandler
	db        Pinger
	version   string
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	return &SystemHandler{db: db, version: version, startTime: time.Now()}
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version,omitempty"`
	Uptime   string `json:"uptime"`
}

// Health godoc
// @Summary      Liveness check including a database ping
// @Tags         system
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Version:  h.version,
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	}
	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		logger.FromContext(ctx).Warn("Health check database ping failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
