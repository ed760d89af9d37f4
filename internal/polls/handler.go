// Package polls serves the read-only HTTP views of the classroom session.
package polls

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aura-classroom/livepoll/internal/models"
	"github.com/aura-classroom/livepoll/internal/session"
	"github.com/aura-classroom/livepoll/pkg/response"
)

// Source is the session data the handler reads.
type Source interface {
	History() []*models.Poll
	State() session.State
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	source Source
}

// NewHandler creates a polls handler.
func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

// Register mounts the handler's routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/api/poll-history", h.History)
	r.GET("/api/state", h.State)
}

// History handles GET /api/poll-history: every ended poll with its results,
// oldest first, as a bare JSON array.
func (h *Handler) History(c *gin.Context) {
	c.JSON(http.StatusOK, h.source.History())
}

// State handles GET /api/state: the current poll and roster.
func (h *Handler) State(c *gin.Context) {
	response.OK(c, h.source.State())
}
