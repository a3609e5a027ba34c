package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pfp-attendance/engine/internal/janitor"
)

// JanitorHandler exposes the Janitor for manual triggering
// (SPEC_FULL.md §2's "POST /admin/janitor/run" admin route).
type JanitorHandler struct {
	janitor *janitor.Janitor
	logger  *slog.Logger
}

func NewJanitorHandler(j *janitor.Janitor, logger *slog.Logger) *JanitorHandler {
	return &JanitorHandler{janitor: j, logger: logger.With("component", "janitor_handler")}
}

// Run triggers an out-of-band sweep and reports how many rows it closed.
func (h *JanitorHandler) Run(c *gin.Context) {
	closed, err := h.janitor.RunOnce(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "manual janitor run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": closed})
}
