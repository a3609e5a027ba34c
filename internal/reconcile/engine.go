// Package reconcile implements the Shift-Aware Punch Reconciliation Engine
// (spec §4.4): the state machine that classifies each punch into one of
// {open, close, amend, cleanup-then-open, discard} and executes the
// corresponding store mutation.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/pfp-attendance/engine/internal/domain"
	"github.com/pfp-attendance/engine/internal/keyedmutex"
	"github.com/pfp-attendance/engine/internal/metrics"
	"github.com/pfp-attendance/engine/internal/shiftresolver"
	"github.com/pfp-attendance/engine/internal/store"
)

// Engine ties the shift resolver and the Ledger Store together behind the
// per-employee critical section required by spec §5. It is safe for
// concurrent use by multiple device supervisors.
type Engine struct {
	store    store.LedgerStore
	resolver *shiftresolver.Resolver
	locks    *keyedmutex.Map
	logger   *slog.Logger
}

// New builds an Engine over the given store and resolver, serializing
// Process calls through locks. locks is shared across every device's Engine
// instance (SPEC_FULL.md §4.2): each device supervisor gets its own
// dedicated connection and therefore its own store, but the per-employee
// critical section must be process-wide, not per-connection, or two
// supervisors processing the same employee on different devices could race
// past each other and violate the "at most one open row" invariant.
func New(s store.LedgerStore, resolver *shiftresolver.Resolver, locks *keyedmutex.Map, logger *slog.Logger) *Engine {
	return &Engine{
		store:    s,
		resolver: resolver,
		locks:    locks,
		logger:   logger.With("component", "reconcile"),
	}
}

// Process classifies and applies one punch end to end (spec §4.4 Steps
// A-D), holding the punch's employee lock for the full read-decide-write
// sequence. It returns the outcome for logging/metrics; per spec §7 the
// engine never returns an error to the Supervisor that should abort the
// punch stream — store errors are returned so the caller can log/retry
// but the engine itself does not retry internally.
func (e *Engine) Process(ctx context.Context, p domain.Punch) (domain.Outcome, error) {
	unlock := e.locks.Lock(p.EmployeeID)
	defer unlock()

	shift, err := e.resolver.Resolve(ctx, p.EmployeeID, p.Timestamp)
	if err != nil {
		return "", err
	}

	cleanedID, err := cleanupStalePrevious(ctx, e.store, e.logger, p.EmployeeID, p.Timestamp, shift)
	if err != nil {
		return "", err
	}

	candidate, err := selectCandidate(ctx, e.store, p.EmployeeID, shift)
	if err != nil {
		return "", err
	}

	cls := classifyFallThrough
	if candidate == nil || candidate.ID != cleanedID {
		cls = classifyAgainst(candidate, p.Timestamp)
	}

	switch cls {
	case classifyDiscard:
		e.record(domain.OutcomeDiscarded)
		return domain.OutcomeDiscarded, nil

	case classifyClose:
		if err := e.store.UpdateClose(ctx, candidate.ID, p.Timestamp, p.DeviceIP); err != nil {
			return "", err
		}
		e.record(domain.OutcomeClosed)
		return domain.OutcomeClosed, nil

	case classifyAmend:
		if err := e.store.UpdateClose(ctx, candidate.ID, p.Timestamp, p.DeviceIP); err != nil {
			return "", err
		}
		e.record(domain.OutcomeAmended)
		return domain.OutcomeAmended, nil

	default: // classifyFallThrough
		outcome, err := openNew(ctx, e.store, p.EmployeeID, p.DeviceIP, p.Timestamp, shift)
		if err != nil {
			return "", err
		}
		if cleanedID != 0 && outcome == domain.OutcomeOpened {
			outcome = domain.OutcomeCleanedThenOpened
		}
		e.record(outcome)
		return outcome, nil
	}
}

func (e *Engine) record(o domain.Outcome) {
	metrics.PunchesTotal.WithLabelValues(string(o)).Inc()
}
