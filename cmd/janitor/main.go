// Command janitor runs the periodic sweep that closes abandoned open
// attendance rows (spec §4.6).
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pfp-attendance/engine/config"
	"github.com/pfp-attendance/engine/internal/adminapi"
	"github.com/pfp-attendance/engine/internal/adminapi/handler"
	"github.com/pfp-attendance/engine/internal/health"
	"github.com/pfp-attendance/engine/internal/infrastructure/mssql"
	"github.com/pfp-attendance/engine/internal/janitor"
	ctxlog "github.com/pfp-attendance/engine/internal/log"
	"github.com/pfp-attendance/engine/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := mssql.NewPool(ctx, mssql.Config{
		Server:   cfg.MSSQLServer,
		Database: cfg.MSSQLDatabase,
		User:     cfg.MSSQLUser,
		Password: cfg.MSSQLPassword,
	})
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()
	logger.Info("db connected")

	metrics.Register()
	metrics.ProcessStartTime.WithLabelValues("janitor").Set(float64(time.Now().Unix()))

	j, err := janitor.New(pool, cfg.CleanupIntervalSeconds, cfg.CleanupThresholdHours, logger)
	if err != nil {
		stop()
		log.Fatalf("janitor: %v", err)
	}
	go j.Run(ctx)

	ledger := mssql.NewLedger(pool)
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)
	router := adminapi.NewRouter(logger, adminapi.Handlers{
		Health:     handler.NewHealthHandler(checker),
		Attendance: handler.NewAttendanceHandler(ledger, logger),
		Janitor:    handler.NewJanitorHandler(j, logger),
	})
	adminSrv := &http.Server{Addr: ":" + cfg.AdminPort, Handler: router}
	go func() {
		logger.Info("admin server started", "port", cfg.AdminPort)
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("janitor shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown", "error", err)
	}

	logger.Info("janitor shut down")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
