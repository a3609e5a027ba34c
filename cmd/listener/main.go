// Command listener runs the per-device streaming workers and the
// reconciliation engine (spec §4.1, §4.5).
package main

import (
	"bufio"
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pfp-attendance/engine/config"
	"github.com/pfp-attendance/engine/internal/adminapi"
	"github.com/pfp-attendance/engine/internal/adminapi/handler"
	"github.com/pfp-attendance/engine/internal/clock"
	"github.com/pfp-attendance/engine/internal/deviceclient"
	"github.com/pfp-attendance/engine/internal/health"
	"github.com/pfp-attendance/engine/internal/infrastructure/mssql"
	"github.com/pfp-attendance/engine/internal/keyedmutex"
	ctxlog "github.com/pfp-attendance/engine/internal/log"
	"github.com/pfp-attendance/engine/internal/metrics"
	"github.com/pfp-attendance/engine/internal/reconcile"
	"github.com/pfp-attendance/engine/internal/shiftresolver"
	"github.com/pfp-attendance/engine/internal/supervisor"
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
	metrics.ProcessStartTime.WithLabelValues("listener").Set(float64(time.Now().Unix()))

	// ledger backs the admin API's read-only endpoints and the device
	// listing below; it shares the pool rather than reserving a dedicated
	// connection since those are one-off/occasional queries, not the
	// sustained per-punch traffic spec §5 calls out.
	ledger := mssql.NewLedger(pool)
	oc := clock.NewOffsetClock(cfg.AttendanceTZOffset)

	devices, err := ledger.ListActiveDevices(ctx)
	if err != nil {
		stop()
		log.Fatalf("list devices: %v", err)
	}
	if len(devices) == 0 {
		logger.Warn("no active devices configured; listener will idle")
	}

	// locks is shared across every device's Engine: per-employee
	// serialization must be process-wide even though each device gets its
	// own dedicated connection below (spec §5, SPEC_FULL.md §4.2).
	locks := keyedmutex.New(cfg.ShardCount)

	var wg sync.WaitGroup
	for _, d := range devices {
		d := d

		session, err := mssql.OpenSession(ctx, pool)
		if err != nil {
			logger.Error("reserve device connection, skipping device", "device_ip", d.IP, "error", err)
			continue
		}

		resolver := shiftresolver.New(session.Ledger)
		engine := reconcile.New(session.Ledger, resolver, locks, logger)

		addr := d.IP + ":" + strconv.Itoa(cfg.ZKPort)
		terminal := deviceclient.NewTCPTerminal(addr, unwiredDecoder{})
		sup := supervisor.New(d, terminal, engine, oc, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer session.Close()
			sup.Run(ctx)
		}()
	}

	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)
	router := adminapi.NewRouter(logger, adminapi.Handlers{
		Health:     handler.NewHealthHandler(checker),
		Attendance: handler.NewAttendanceHandler(ledger, logger),
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
	logger.Info("listener shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown", "error", err)
	}

	wg.Wait()
	logger.Info("listener shut down")
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

// unwiredDecoder satisfies deviceclient.FrameDecoder until a real ZKTeco
// wire-protocol implementation is plugged in (spec §1: the terminal
// protocol is explicitly out of scope here).
type unwiredDecoder struct{}

func (unwiredDecoder) Decode(r *bufio.Reader) (deviceclient.RawEvent, error) {
	return deviceclient.RawEvent{}, errors.New("deviceclient: no FrameDecoder configured for this terminal protocol")
}
