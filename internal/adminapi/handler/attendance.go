package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pfp-attendance/engine/internal/store"
)

const errInternalServer = "Internal server error"

// AttendanceHandler exposes read-only ops visibility over the ledger
// (SPEC_FULL.md §2's "GET /attendance/open" admin route).
type AttendanceHandler struct {
	store  store.LedgerStore
	logger *slog.Logger
}

func NewAttendanceHandler(s store.LedgerStore, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{store: s, logger: logger.With("component", "attendance_handler")}
}

type openRowResponse struct {
	ID         int64      `json:"id"`
	EmployeeID string     `json:"employee_id"`
	DateStamp  time.Time  `json:"date_stamp"`
	TimeIn     *time.Time `json:"time_in,omitempty"`
	IPIn       string     `json:"ip_in,omitempty"`
}

// ListOpen returns every row currently open, optionally as of a query-string
// timestamp (defaults to now).
func (h *AttendanceHandler) ListOpen(c *gin.Context) {
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be RFC3339"})
			return
		}
		asOf = parsed
	}

	rows, err := h.store.ListOpenRows(c.Request.Context(), asOf)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list open rows", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := make([]openRowResponse, len(rows))
	for i, r := range rows {
		resp[i] = openRowResponse{
			ID:         r.ID,
			EmployeeID: r.EmployeeID,
			DateStamp:  r.DateStamp,
			TimeIn:     r.TimeIn,
			IPIn:       r.IPIn,
		}
	}
	c.JSON(http.StatusOK, gin.H{"open_rows": resp})
}
