// Package shiftresolver implements spec §4.3: given (employee, instant),
// return the covering planned shift, or none.
package shiftresolver

import (
	"context"
	"sort"
	"time"

	"github.com/pfp-attendance/engine/internal/domain"
	"github.com/pfp-attendance/engine/internal/store"
)

// Resolver resolves the shift covering a given instant for an employee.
type Resolver struct {
	store store.LedgerStore
}

// New builds a Resolver backed by the given Ledger Store.
func New(s store.LedgerStore) *Resolver {
	return &Resolver{store: s}
}

// Resolve implements the procedure in spec §4.3:
//  1. query plan rows for {instant.date, instant.date-1}, ordered by
//     date_period DESC (most recent first — this makes a near-midnight
//     punch on D+1 preferentially match D's overnight shift).
//  2. reject rows with a missing window or the holiday/00:00 bypass.
//  3. compute the admission window per row.
//  4. return the first shift whose window admits instant.
func (r *Resolver) Resolve(ctx context.Context, employeeID string, instant time.Time) (*domain.Shift, error) {
	day := dateOnly(instant)
	candidates := []time.Time{day, day.AddDate(0, 0, -1)}

	shifts, err := r.store.ShiftsFor(ctx, employeeID, candidates)
	if err != nil {
		return nil, err
	}

	sort.Slice(shifts, func(i, j int) bool {
		return shifts[i].DatePeriod.After(shifts[j].DatePeriod)
	})

	for i := range shifts {
		s := shifts[i]
		if s.IsBypass() {
			continue
		}
		if s.Admits(instant) {
			return &s, nil
		}
	}
	return nil, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
