// Package janitor implements the periodic sweep that closes abandoned open
// attendance intervals (spec §4.6).
package janitor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pfp-attendance/engine/internal/domain"
	"github.com/pfp-attendance/engine/internal/infrastructure/mssql"
	"github.com/pfp-attendance/engine/internal/metrics"
	"github.com/pfp-attendance/engine/internal/reconcile"
	"github.com/robfig/cron/v3"
)

// pollGranularity is how often the Janitor wakes to observe the stop
// signal while waiting for its next aligned run (spec §4.6 step 6, §4.7).
const pollGranularity = 10 * time.Second

// Janitor runs on an aligned schedule, anchored to wall-clock hours derived
// from intervalSeconds, and closes every open row older than
// thresholdHours.
type Janitor struct {
	db             *sql.DB
	schedule       cron.Schedule
	thresholdHours int
	logger         *slog.Logger
}

// New builds a Janitor. intervalSeconds and thresholdHours come from
// CLEANUP_INTERVAL_SECONDS / CLEANUP_THRESHOLD_HOURS.
func New(db *sql.DB, intervalSeconds, thresholdHours int, logger *slog.Logger) (*Janitor, error) {
	expr, err := cronExprFor(intervalSeconds)
	if err != nil {
		return nil, err
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron schedule %q: %w", expr, err)
	}

	return &Janitor{
		db:             db,
		schedule:       schedule,
		thresholdHours: thresholdHours,
		logger:         logger.With("component", "janitor"),
	}, nil
}

// cronExprFor derives a standard 5-field cron expression anchored to
// wall-clock hours from intervalSeconds, grounded on dispatcher.go's
// computeNext/cron.ParseStandard usage (DESIGN.md). The interval is truncated
// to whole hours (capped at 24) and used as an hour step "*/N"; when N does
// not divide 24, the last run of each day is followed by a shorter gap to
// midnight. Intervals under one hour are rejected.
func cronExprFor(intervalSeconds int) (string, error) {
	if intervalSeconds < 3600 {
		return "", fmt.Errorf("cleanup interval %ds is below the 1h scheduling granularity", intervalSeconds)
	}
	hours := intervalSeconds / 3600
	if hours < 1 {
		hours = 1
	}
	if hours > 24 {
		hours = 24
	}
	return fmt.Sprintf("0 */%d * * *", hours), nil
}

// Run blocks until ctx is canceled, waking every pollGranularity to check
// for shutdown and firing a cycle whenever the aligned schedule comes due
// (spec §4.6 step 6, §4.7 cooperative shutdown).
func (j *Janitor) Run(ctx context.Context) {
	next := j.schedule.Next(time.Now())
	j.logger.Info("janitor started", "threshold_hours", j.thresholdHours, "next_run", next)

	ticker := time.NewTicker(pollGranularity)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor shut down")
			return
		case <-ticker.C:
			if !time.Now().Before(next) {
				j.runCycle(ctx)
				next = j.schedule.Next(time.Now())
				j.logger.Info("next janitor run scheduled", "next_run", next)
			}
		}
	}
}

// RunOnce executes a single cycle immediately, used by the admin API's
// POST /admin/janitor/run (SPEC_FULL.md §2).
func (j *Janitor) RunOnce(ctx context.Context) (closed int, err error) {
	return j.sweep(ctx)
}

func (j *Janitor) runCycle(ctx context.Context) {
	start := time.Now()
	closed, err := j.sweep(ctx)
	metrics.JanitorCycleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		j.logger.Error("janitor cycle failed", "error", err)
		return
	}
	if closed > 0 {
		j.logger.Info("janitor cycle complete", "closed", closed)
	}
}

// sweep implements spec §4.6 steps 1-5: open a dedicated connection for the
// cycle, find every open row older than the threshold, and close each with
// a synthesized time_out, continuing past row-level errors.
func (j *Janitor) sweep(ctx context.Context) (int, error) {
	session, err := mssql.OpenSession(ctx, j.db)
	if err != nil {
		return 0, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	threshold := time.Now().Add(-time.Duration(j.thresholdHours) * time.Hour)
	rows, err := session.Ledger.FindOpenRowsOlderThan(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("find open rows: %w", err)
	}

	closed := 0
	for _, row := range rows {
		if err := j.closeRow(ctx, session, row); err != nil {
			metrics.JanitorCycleErrorsTotal.Inc()
			j.logger.Error("janitor: close row failed, continuing", "row_id", row.ID, "error", err)
			continue
		}
		closed++
		metrics.JanitorClosedTotal.Inc()
	}
	return closed, nil
}

func (j *Janitor) closeRow(ctx context.Context, session *mssql.Session, row *domain.AttendanceRow) error {
	synthetic, err := reconcile.SynthesizeCloseTime(ctx, session.Ledger, row.EmployeeID, row.DateStamp, row.TimeIn)
	if err != nil {
		return err
	}
	return session.Ledger.UpdateClose(ctx, row.ID, synthetic, domain.AutoCleanupSentinel)
}
