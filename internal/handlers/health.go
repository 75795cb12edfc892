package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthChecker is anything /health should probe.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	checks  map[string]HealthChecker
	timeout time.Duration
	log     *zap.SugaredLogger
}

func NewHealthHandler(checks map[string]HealthChecker, timeout time.Duration, log *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: timeout, log: log}
}

// Health reports 200 when every dependency answers and 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	components := make(gin.H, len(h.checks))
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			h.log.Warnw("health check failed", "component", name, "error", err)
			components[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	result := "healthy"
	if status != http.StatusOK {
		result = "unhealthy"
	}
	c.JSON(status, gin.H{"status": result, "components": components})
}
