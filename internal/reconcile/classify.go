package reconcile

import (
	"context"
	"time"

	"github.com/pfp-attendance/engine/internal/domain"
	"github.com/pfp-attendance/engine/internal/store"
)

// selectCandidate implements Step B: if a shift was resolved, the candidate
// row R is the employee's row on that shift's date_period; otherwise R is
// simply the employee's latest row.
func selectCandidate(ctx context.Context, s store.LedgerStore, employeeID string, shift *domain.Shift) (*domain.AttendanceRow, error) {
	if shift != nil {
		return s.LatestRowOn(ctx, employeeID, shift.DatePeriod)
	}
	return s.LatestRowFor(ctx, employeeID)
}

// classification is the result of Step C: either a terminal action against
// R, or "fall through to Step D".
type classification int

const (
	classifyFallThrough classification = iota
	classifyDiscard
	classifyClose
	classifyAmend
)

// classifyAgainst implements Step C of spec §4.4.
func classifyAgainst(r *domain.AttendanceRow, t time.Time) classification {
	if r == nil {
		return classifyFallThrough
	}

	if r.IsOpen() {
		basis := *r.TimeIn
		diff := t.Sub(basis)
		switch {
		case diff > 0 && diff < subMinute:
			return classifyDiscard
		case diff > 0 && diff < MaxOpenAge:
			return classifyClose
		default:
			return classifyFallThrough
		}
	}

	// r is closed.
	if r.IsCleanupClose() || r.TimeOut.After(t) {
		return classifyAmend
	}
	diff := t.Sub(*r.TimeOut)
	if diff > 0 && diff < AmendWindow {
		return classifyAmend
	}
	return classifyFallThrough
}
