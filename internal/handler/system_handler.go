package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/calabozos/calabozos-backend/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// SystemHandler reports liveness and the state of backing services.
type SystemHandler struct {
	checks    map[string]HealthCheck
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a SystemHandler probing checks by name.
func NewSystemHandler(checks map[string]HealthCheck, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		checks:    checks,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
// Returns 200 when every dependency answers, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	deps := make(gin.H, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			healthy = false
			deps[name] = err.Error()
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			continue
		}
		deps[name] = "ok"
	}

	status, state := http.StatusOK, "ok"
	if !healthy {
		status, state = http.StatusServiceUnavailable, "degraded"
	}

	response.Success(c, status, gin.H{
		"status":       state,
		"uptime":       time.Since(h.startTime).Round(time.Second).String(),
		"go_version":   runtime.Version(),
		"goroutines":   runtime.NumGoroutine(),
		"dependencies": deps,
	})
}
