package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/pfp-attendance/engine/internal/domain"
	"github.com/pfp-attendance/engine/internal/store"
)

// cleanupStalePrevious implements Step A of spec §4.4: load the latest row
// for the employee and, if it is open and belongs to a different shift (or
// has gone stale with no shift resolved), close it with a synthesized
// time_out before P is processed any further.
//
// The returned id is the just-closed row's id, or 0 if nothing was cleaned
// up. Per DESIGN.md's resolution of the "cleanup tie with AMEND" open
// question, the caller must not let Step B re-select this same row as an
// AMEND target — cleanup is unconditional and terminal for that row.
func cleanupStalePrevious(ctx context.Context, s store.LedgerStore, logger *slog.Logger, employeeID string, t time.Time, shift *domain.Shift) (int64, error) {
	prev, err := s.LatestRowFor(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	if prev == nil || !prev.IsOpen() {
		return 0, nil
	}

	basis := prev.DateStamp
	if prev.TimeIn != nil {
		basis = *prev.TimeIn
	}

	shouldCleanup := false
	switch {
	case shift != nil:
		shouldCleanup = !shift.Admits(basis)
	default:
		shouldCleanup = t.Sub(basis) > StaleShiftAge
	}
	if !shouldCleanup {
		return 0, nil
	}

	synthetic, err := SynthesizeCloseTime(ctx, s, employeeID, prev.DateStamp, prev.TimeIn)
	if err != nil {
		return 0, err
	}

	if err := s.UpdateClose(ctx, prev.ID, synthetic, domain.AutoCleanupSentinel); err != nil {
		return 0, err
	}
	logger.Debug("cleaned up stale open row", "employee_id", employeeID, "row_id", prev.ID, "synthetic_time_out", synthetic)
	return prev.ID, nil
}
