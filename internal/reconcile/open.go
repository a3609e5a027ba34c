package reconcile

import (
	"context"
	"time"

	"github.com/pfp-attendance/engine/internal/domain"
	"github.com/pfp-attendance/engine/internal/store"
)

// openNew implements Step D of spec §4.4: a shift past its midpoint with no
// usable prior row opens an out-only row; otherwise a normal open row.
func openNew(ctx context.Context, s store.LedgerStore, employeeID, ip string, t time.Time, shift *domain.Shift) (domain.Outcome, error) {
	if shift != nil && t.After(shift.Midpoint()) {
		if err := s.InsertOutOnly(ctx, shift.DatePeriod, employeeID, ip, t); err != nil {
			return "", err
		}
		return domain.OutcomeOutOnly, nil
	}

	dateStamp := dateOnly(t)
	if shift != nil {
		dateStamp = shift.DatePeriod
	}
	if err := s.InsertOpen(ctx, dateStamp, employeeID, ip, t); err != nil {
		return "", err
	}
	return domain.OutcomeOpened, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
