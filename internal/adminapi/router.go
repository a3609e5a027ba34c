// Package adminapi is the ops HTTP surface both daemons expose: health
// checks, Prometheus metrics, and a handful of read/trigger routes for
// on-call use (SPEC_FULL.md §2).
package adminapi

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sloggin "github.com/samber/slog-gin"

	"github.com/pfp-attendance/engine/internal/adminapi/handler"
	"github.com/pfp-attendance/engine/internal/adminapi/middleware"
)

// Handlers bundles the optional route groups a daemon wires in. A daemon
// that doesn't run a Janitor (the Listener) leaves Janitor nil and the
// /admin/janitor/run route is omitted.
type Handlers struct {
	Health     *handler.HealthHandler
	Attendance *handler.AttendanceHandler
	Janitor    *handler.JanitorHandler
}

// NewRouter builds the gin engine shared by cmd/listener and cmd/janitor.
func NewRouter(logger *slog.Logger, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if h.Attendance != nil {
		r.GET("/attendance/open", h.Attendance.ListOpen)
	}

	if h.Janitor != nil {
		r.POST("/admin/janitor/run", h.Janitor.Run)
	}

	return r
}
