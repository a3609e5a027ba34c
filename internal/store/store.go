// Package store defines the Ledger Store contract consumed by the
// reconciliation engine, the Janitor, and the admin API (spec §4.2). The
// concrete implementation lives in internal/infrastructure/mssql.
package store

import (
	"context"
	"time"

	"github.com/pfp-attendance/engine/internal/domain"
)

// LedgerStore is the transactional interface over TimeAttandanceLog and the
// read-only interface over VListPeriodEmployee. Every mutation commits
// before the caller considers the event handled; failures roll back and
// propagate as a *storeerr.Error.
type LedgerStore interface {
	// LatestRowFor returns the newest row for employeeID by (date_stamp, id)
	// descending, or nil if none exists.
	LatestRowFor(ctx context.Context, employeeID string) (*domain.AttendanceRow, error)

	// LatestRowOn returns the row for employeeID on the given date_stamp, or
	// nil if none exists.
	LatestRowOn(ctx context.Context, employeeID string, dateStamp time.Time) (*domain.AttendanceRow, error)

	// FindOpenRowsOlderThan returns every row with time_out IS NULL where
	// coalesce(time_in, date_stamp) < threshold. Used only by the Janitor.
	FindOpenRowsOlderThan(ctx context.Context, threshold time.Time) ([]*domain.AttendanceRow, error)

	// InsertOpen inserts a new row with time_in = timeIn, time_out = NULL.
	InsertOpen(ctx context.Context, dateStamp time.Time, employeeID, ipIn string, timeIn time.Time) error

	// InsertOutOnly inserts a new row with time_in = NULL, time_out = timeOut.
	InsertOutOnly(ctx context.Context, dateStamp time.Time, employeeID, ipOut string, timeOut time.Time) error

	// UpdateClose sets time_out/ip_out on the row with the given id.
	UpdateClose(ctx context.Context, id int64, timeOut time.Time, ipOut string) error

	// ShiftEndTimeFor reads the plan view's OutTmp for employeeID on
	// datePeriod. Returns ok=false if no plan row exists.
	ShiftEndTimeFor(ctx context.Context, employeeID string, datePeriod time.Time) (outTmp time.Duration, ok bool, err error)

	// ShiftsFor returns every plan row for employeeID on any of the listed
	// candidate dates.
	ShiftsFor(ctx context.Context, employeeID string, dates []time.Time) ([]domain.Shift, error)

	// ListOpenRows is an ops-visibility addition (SPEC_FULL.md §4.2) backing
	// the admin API's GET /attendance/open endpoint.
	ListOpenRows(ctx context.Context, asOf time.Time) ([]*domain.AttendanceRow, error)

	// ListActiveDevices returns the flagged device inventory, consumed by
	// the Listener to spawn one supervisor per device.
	ListActiveDevices(ctx context.Context) ([]domain.Device, error)
}
