package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pfp-attendance/engine/internal/domain"
)

// attendanceTable and planView mirror the bracket-quoted identifiers used
// throughout the original Python implementation.
const (
	attendanceTable = "[EmpBook_db].[dbo].[TimeAttandanceLog]"
	deviceTable     = "[EmpBook_db].[dbo].[Device]"
	planView        = "[db_pfpdashboard].[dbo].[VListPeriodEmployee]"
)

// querier is satisfied by both *sql.DB and *sql.Conn, mirroring the
// teacher's rowScanner interface that lets pgx.Row/pgx.Rows share one scan
// helper (internal/infrastructure/postgres/job_repo.go).
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Ledger implements store.LedgerStore against SQL Server. q is either the
// shared pool (*sql.DB) or a reserved per-worker connection (*sql.Conn),
// per the connection model in SPEC_FULL.md §4.2.
type Ledger struct {
	q querier
}

// NewLedger builds a Ledger over the given querier.
func NewLedger(q querier) *Ledger {
	return &Ledger{q: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(r rowScanner) (*domain.AttendanceRow, error) {
	var (
		row     domain.AttendanceRow
		timeIn  sql.NullTime
		timeOut sql.NullTime
		ipIn    sql.NullString
		ipOut   sql.NullString
	)
	if err := r.Scan(&row.ID, &row.EmployeeID, &row.DateStamp, &timeIn, &timeOut, &ipIn, &ipOut); err != nil {
		return nil, err
	}
	if timeIn.Valid {
		t := timeIn.Time
		row.TimeIn = &t
	}
	if timeOut.Valid {
		t := timeOut.Time
		row.TimeOut = &t
	}
	row.IPIn = ipIn.String
	row.IPOut = ipOut.String
	return &row, nil
}

const selectColumns = `Id, EmpId, DateTimeStamp, TimeIn, TimeOut, IPStampIn, IPStampOut`

func (l *Ledger) LatestRowFor(ctx context.Context, employeeID string) (*domain.AttendanceRow, error) {
	query := `SELECT TOP 1 ` + selectColumns + ` FROM ` + attendanceTable + ` WITH (NOLOCK)
		WHERE EmpId = @p1
		ORDER BY DateTimeStamp DESC, Id DESC`

	row, err := scanRow(l.q.QueryRowContext(ctx, query, employeeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "mssql.latest_row_for")
	}
	return row, nil
}

func (l *Ledger) LatestRowOn(ctx context.Context, employeeID string, dateStamp time.Time) (*domain.AttendanceRow, error) {
	query := `SELECT TOP 1 ` + selectColumns + ` FROM ` + attendanceTable + ` WITH (NOLOCK)
		WHERE EmpId = @p1 AND CAST(DateTimeStamp AS DATE) = CAST(@p2 AS DATE)
		ORDER BY Id DESC`

	row, err := scanRow(l.q.QueryRowContext(ctx, query, employeeID, dateStamp))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "mssql.latest_row_on")
	}
	return row, nil
}

func (l *Ledger) FindOpenRowsOlderThan(ctx context.Context, threshold time.Time) ([]*domain.AttendanceRow, error) {
	query := `SELECT ` + selectColumns + ` FROM ` + attendanceTable + ` WITH (NOLOCK)
		WHERE TimeOut IS NULL AND COALESCE(TimeIn, DateTimeStamp) < @p1
		ORDER BY DateTimeStamp ASC`

	rows, err := l.q.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, classify(err, "mssql.find_open_rows_older_than")
	}
	defer rows.Close()

	var out []*domain.AttendanceRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, classify(err, "mssql.find_open_rows_older_than.scan")
		}
		out = append(out, r)
	}
	return out, classify(rows.Err(), "mssql.find_open_rows_older_than.iterate")
}

func (l *Ledger) InsertOpen(ctx context.Context, dateStamp time.Time, employeeID, ipIn string, timeIn time.Time) error {
	query := `INSERT INTO ` + attendanceTable + ` (EmpId, DateTimeStamp, TimeIn, IPStampIn)
		VALUES (@p1, @p2, @p3, @p4)`
	_, err := l.q.ExecContext(ctx, query, employeeID, dateStamp, timeIn, ipIn)
	return classify(err, "mssql.insert_open")
}

func (l *Ledger) InsertOutOnly(ctx context.Context, dateStamp time.Time, employeeID, ipOut string, timeOut time.Time) error {
	query := `INSERT INTO ` + attendanceTable + ` (EmpId, DateTimeStamp, TimeOut, IPStampOut)
		VALUES (@p1, @p2, @p3, @p4)`
	_, err := l.q.ExecContext(ctx, query, employeeID, dateStamp, timeOut, ipOut)
	return classify(err, "mssql.insert_out_only")
}

func (l *Ledger) UpdateClose(ctx context.Context, id int64, timeOut time.Time, ipOut string) error {
	query := `UPDATE ` + attendanceTable + ` SET TimeOut = @p1, IPStampOut = @p2 WHERE Id = @p3`
	_, err := l.q.ExecContext(ctx, query, timeOut, ipOut, id)
	return classify(err, "mssql.update_close")
}

func (l *Ledger) ShiftEndTimeFor(ctx context.Context, employeeID string, datePeriod time.Time) (time.Duration, bool, error) {
	query := `SELECT TOP 1 OutTmp FROM ` + planView + ` WITH (NOLOCK)
		WHERE EmpId = @p1 AND CAST(DatePeriod AS DATE) = CAST(@p2 AS DATE)`

	var outTmp time.Time
	err := l.q.QueryRowContext(ctx, query, employeeID, datePeriod).Scan(&outTmp)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, classify(err, "mssql.shift_end_time_for")
	}
	return timeOfDay(outTmp), true, nil
}

func (l *Ledger) ShiftsFor(ctx context.Context, employeeID string, dates []time.Time) ([]domain.Shift, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(dates))
	args := make([]any, 0, len(dates)+1)
	args = append(args, employeeID)
	for i, d := range dates {
		placeholders[i] = fmt.Sprintf("CAST(@p%d AS DATE)", i+2)
		args = append(args, d)
	}

	query := `SELECT DatePeriod, InTmp, OutTmp, HoliDay FROM ` + planView + ` WITH (NOLOCK)
		WHERE EmpId = @p1 AND CAST(DatePeriod AS DATE) IN (` + joinStrings(placeholders, ", ") + `)
		ORDER BY DatePeriod DESC`

	rows, err := l.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "mssql.shifts_for")
	}
	defer rows.Close()

	var out []domain.Shift
	for rows.Next() {
		var (
			datePeriod time.Time
			inTmp      sql.NullTime
			outTmp     sql.NullTime
			holiday    bool
		)
		if err := rows.Scan(&datePeriod, &inTmp, &outTmp, &holiday); err != nil {
			return nil, classify(err, "mssql.shifts_for.scan")
		}
		// spec §4.3 step 2: a plan row missing either in_tmp or out_tmp is
		// rejected outright, distinct from the holiday/00:00 bypass — skip
		// it rather than failing the whole lookup.
		if !inTmp.Valid || !outTmp.Valid {
			continue
		}
		out = append(out, domain.Shift{
			DatePeriod: datePeriod,
			InTmp:      timeOfDay(inTmp.Time),
			OutTmp:     timeOfDay(outTmp.Time),
			Holiday:    holiday,
		})
	}
	return out, classify(rows.Err(), "mssql.shifts_for.iterate")
}

func (l *Ledger) ListOpenRows(ctx context.Context, asOf time.Time) ([]*domain.AttendanceRow, error) {
	query := `SELECT ` + selectColumns + ` FROM ` + attendanceTable + ` WITH (NOLOCK)
		WHERE TimeOut IS NULL AND DateTimeStamp <= @p1
		ORDER BY DateTimeStamp DESC`

	rows, err := l.q.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, classify(err, "mssql.list_open_rows")
	}
	defer rows.Close()

	var out []*domain.AttendanceRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, classify(err, "mssql.list_open_rows.scan")
		}
		out = append(out, r)
	}
	return out, classify(rows.Err(), "mssql.list_open_rows.iterate")
}

func (l *Ledger) ListActiveDevices(ctx context.Context) ([]domain.Device, error) {
	query := `SELECT IP, Name FROM ` + deviceTable + ` WITH (NOLOCK) WHERE Flag = 1`

	rows, err := l.q.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err, "mssql.list_active_devices")
	}
	defer rows.Close()

	var out []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.IP, &d.Name); err != nil {
			return nil, classify(err, "mssql.list_active_devices.scan")
		}
		out = append(out, d)
	}
	return out, classify(rows.Err(), "mssql.list_active_devices.iterate")
}

// timeOfDay extracts the time-of-day portion of a SQL Server TIME/DATETIME
// value as a duration since midnight.
func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

func joinStrings(items []string, sep string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}
