// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aura-classroom/livepoll/pkg/response"
)

const checkTimeout = 2 * time.Second

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Handler answers /health and /ready.
type Handler struct {
	names  []string
	checks map[string]CheckFunc
}

// NewHandler creates a handler with no dependency checks.
func NewHandler() *Handler {
	return &Handler{checks: make(map[string]CheckFunc)}
}

// Add registers a dependency check run by Ready.
func (h *Handler) Add(name string, check CheckFunc) {
	if _, ok := h.checks[name]; !ok {
		h.names = append(h.names, name)
	}
	h.checks[name] = check
}

// Register mounts the probes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.Live)
	r.GET("/ready", h.Ready)
}

// Live handles GET /health.
func (h *Handler) Live(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}

// Ready handles GET /ready, failing with 503 if any dependency is down.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	status := make(map[string]string, len(h.names))
	healthy := true
	for _, name := range h.names {
		if err := h.checks[name](ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		response.ServiceUnavailable(c, "dependency unavailable", status)
		return
	}
	response.OK(c, status)
}
