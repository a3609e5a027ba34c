package reconcile

import (
	"context"
	"time"

	"github.com/pfp-attendance/engine/internal/store"
)

// SynthesizeCloseTime computes the synthetic time_out for a row nobody
// punched out of, used identically by Step A's cleanup-of-stale-prior-row
// and by the Janitor's sweep (spec §4.4 Step A, §4.6 step 4). It consults
// the plan view for a planned OutTmp on dateStamp; if found, it combines
// that time-of-day with dateStamp, advancing by 24h if the result would not
// be strictly after timeIn (overnight). If no plan is found, it falls back
// to timeIn, or to dateStamp if timeIn is nil (an out-only row can itself
// go stale with no TimeIn to fall back to).
func SynthesizeCloseTime(ctx context.Context, s store.LedgerStore, employeeID string, dateStamp time.Time, timeIn *time.Time) (time.Time, error) {
	outTmp, ok, err := s.ShiftEndTimeFor(ctx, employeeID, dateStamp)
	if err != nil {
		return time.Time{}, err
	}

	fallback := dateStamp
	if timeIn != nil {
		fallback = *timeIn
	}

	if !ok {
		return fallback, nil
	}

	candidate := dateStamp.Add(outTmp)
	if timeIn != nil && !candidate.After(*timeIn) {
		candidate = candidate.Add(24 * time.Hour)
	}
	return candidate, nil
}
