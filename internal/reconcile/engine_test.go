package reconcile_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pfp-attendance/engine/internal/domain"
	"github.com/pfp-attendance/engine/internal/keyedmutex"
	"github.com/pfp-attendance/engine/internal/reconcile"
	"github.com/pfp-attendance/engine/internal/shiftresolver"
	"github.com/pfp-attendance/engine/internal/store"
)

// memStore is a minimal in-memory store.LedgerStore, standing in for the
// mssql-backed Ledger so the reconciliation state machine can be exercised
// against the literal scenarios in spec §8 without a database.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	rows    []*domain.AttendanceRow
	shifts  map[string][]domain.Shift // employeeID -> plan rows
}

func newMemStore() *memStore {
	return &memStore{shifts: make(map[string][]domain.Shift)}
}

func (m *memStore) LatestRowFor(_ context.Context, employeeID string) (*domain.AttendanceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *domain.AttendanceRow
	for _, r := range m.rows {
		if r.EmployeeID != employeeID {
			continue
		}
		if best == nil || r.DateStamp.After(best.DateStamp) || (r.DateStamp.Equal(best.DateStamp) && r.ID > best.ID) {
			best = r
		}
	}
	return best, nil
}

func (m *memStore) LatestRowOn(_ context.Context, employeeID string, dateStamp time.Time) (*domain.AttendanceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *domain.AttendanceRow
	for _, r := range m.rows {
		if r.EmployeeID != employeeID || !r.DateStamp.Equal(dateStamp) {
			continue
		}
		if best == nil || r.ID > best.ID {
			best = r
		}
	}
	return best, nil
}

func (m *memStore) FindOpenRowsOlderThan(_ context.Context, threshold time.Time) ([]*domain.AttendanceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AttendanceRow
	for _, r := range m.rows {
		if !r.IsOpen() {
			continue
		}
		basis := r.DateStamp
		if r.TimeIn != nil {
			basis = *r.TimeIn
		}
		if basis.Before(threshold) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) InsertOpen(_ context.Context, dateStamp time.Time, employeeID, ipIn string, timeIn time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ti := timeIn
	m.rows = append(m.rows, &domain.AttendanceRow{
		ID: m.nextID, EmployeeID: employeeID, DateStamp: dateStamp, TimeIn: &ti, IPIn: ipIn,
	})
	return nil
}

func (m *memStore) InsertOutOnly(_ context.Context, dateStamp time.Time, employeeID, ipOut string, timeOut time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	to := timeOut
	m.rows = append(m.rows, &domain.AttendanceRow{
		ID: m.nextID, EmployeeID: employeeID, DateStamp: dateStamp, TimeOut: &to, IPOut: ipOut,
	})
	return nil
}

func (m *memStore) UpdateClose(_ context.Context, id int64, timeOut time.Time, ipOut string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			to := timeOut
			r.TimeOut = &to
			r.IPOut = ipOut
			return nil
		}
	}
	return nil
}

func (m *memStore) ShiftEndTimeFor(_ context.Context, employeeID string, datePeriod time.Time) (time.Duration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shifts[employeeID] {
		if s.DatePeriod.Equal(datePeriod) {
			return s.OutTmp, true, nil
		}
	}
	return 0, false, nil
}

func (m *memStore) ShiftsFor(_ context.Context, employeeID string, dates []time.Time) ([]domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Shift
	for _, s := range m.shifts[employeeID] {
		for _, d := range dates {
			if s.DatePeriod.Equal(d) {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (m *memStore) ListOpenRows(_ context.Context, _ time.Time) ([]*domain.AttendanceRow, error) {
	return nil, nil
}

func (m *memStore) ListActiveDevices(_ context.Context) ([]domain.Device, error) {
	return nil, nil
}

func (m *memStore) addShift(employeeID string, s domain.Shift) {
	m.shifts[employeeID] = append(m.shifts[employeeID], s)
}

var _ store.LedgerStore = (*memStore)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParse(t *testing.T, layout, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(layout, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func newEngine(s store.LedgerStore) *reconcile.Engine {
	resolver := shiftresolver.New(s)
	return reconcile.New(s, resolver, keyedmutex.New(8), testLogger())
}

const layout = "2006-01-02 15:04:05"

func TestScenario1_NormalInOut(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	e := newEngine(s)

	in := mustParse(t, layout, "2025-01-15 08:00:00")
	out := mustParse(t, layout, "2025-01-15 17:00:00")

	outcome, err := e.Process(ctx, domain.Punch{EmployeeID: "05233", DeviceIP: "10.0.0.1", Timestamp: in})
	if err != nil || outcome != domain.OutcomeOpened {
		t.Fatalf("open: outcome=%v err=%v", outcome, err)
	}

	outcome, err = e.Process(ctx, domain.Punch{EmployeeID: "05233", DeviceIP: "10.0.0.1", Timestamp: out})
	if err != nil || outcome != domain.OutcomeClosed {
		t.Fatalf("close: outcome=%v err=%v", outcome, err)
	}

	if len(s.rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(s.rows))
	}
	row := s.rows[0]
	if row.TimeIn == nil || !row.TimeIn.Equal(in) || row.TimeOut == nil || !row.TimeOut.Equal(out) {
		t.Fatalf("row = %+v", row)
	}
	if row.IPIn != "10.0.0.1" || row.IPOut != "10.0.0.1" {
		t.Fatalf("row ips = %q/%q", row.IPIn, row.IPOut)
	}
}

func TestScenario2_SubMinuteDuplicateDiscarded(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	e := newEngine(s)

	first := mustParse(t, layout, "2025-01-15 08:00:00")
	dup := mustParse(t, layout, "2025-01-15 08:00:30")

	if _, err := e.Process(ctx, domain.Punch{EmployeeID: "05233", DeviceIP: "10.0.0.1", Timestamp: first}); err != nil {
		t.Fatal(err)
	}

	outcome, err := e.Process(ctx, domain.Punch{EmployeeID: "05233", DeviceIP: "10.0.0.1", Timestamp: dup})
	if err != nil || outcome != domain.OutcomeDiscarded {
		t.Fatalf("outcome=%v err=%v", outcome, err)
	}

	if len(s.rows) != 1 || !s.rows[0].IsOpen() {
		t.Fatalf("expected a single still-open row, got %+v", s.rows)
	}
}

func TestScenario3_AmendWithinWindowThenNewShiftAfter(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	e := newEngine(s)

	punch := func(ip, at string) domain.Outcome {
		ts := mustParse(t, layout, at)
		outcome, err := e.Process(ctx, domain.Punch{EmployeeID: "05233", DeviceIP: ip, Timestamp: ts})
		if err != nil {
			t.Fatalf("process %s: %v", at, err)
		}
		return outcome
	}

	punch("10.0.0.1", "2025-01-15 08:00:00")
	punch("10.0.0.1", "2025-01-15 17:00:00")

	if outcome := punch("10.0.0.2", "2025-01-15 17:45:00"); outcome != domain.OutcomeAmended {
		t.Fatalf("amend outcome = %v", outcome)
	}
	if len(s.rows) != 1 {
		t.Fatalf("amend should not create a new row, got %d", len(s.rows))
	}
	if s.rows[0].IPOut != "10.0.0.2" {
		t.Fatalf("ip_out after amend = %q", s.rows[0].IPOut)
	}

	if outcome := punch("10.0.0.1", "2025-01-15 19:00:00"); outcome != domain.OutcomeOpened {
		t.Fatalf("post-window punch outcome = %v", outcome)
	}
	if len(s.rows) != 2 {
		t.Fatalf("want 2 rows after the post-window punch, got %d", len(s.rows))
	}
}

func TestScenario4_OvernightShift(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	e := newEngine(s)

	datePeriod := mustParse(t, "2006-01-02", "2025-01-15")
	s.addShift("05233", domain.Shift{DatePeriod: datePeriod, InTmp: 22 * time.Hour, OutTmp: 6 * time.Hour})

	in := mustParse(t, layout, "2025-01-15 21:55:00")
	out := mustParse(t, layout, "2025-01-16 06:10:00")

	if outcome, err := e.Process(ctx, domain.Punch{EmployeeID: "05233", DeviceIP: "10.0.0.1", Timestamp: in}); err != nil || outcome != domain.OutcomeOpened {
		t.Fatalf("open: outcome=%v err=%v", outcome, err)
	}
	if outcome, err := e.Process(ctx, domain.Punch{EmployeeID: "05233", DeviceIP: "10.0.0.1", Timestamp: out}); err != nil || outcome != domain.OutcomeClosed {
		t.Fatalf("close: outcome=%v err=%v", outcome, err)
	}

	if len(s.rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(s.rows))
	}
	row := s.rows[0]
	if !row.DateStamp.Equal(datePeriod) {
		t.Fatalf("date_stamp = %v, want %v", row.DateStamp, datePeriod)
	}
	if !row.TimeOut.Equal(out) {
		t.Fatalf("time_out = %v, want %v", row.TimeOut, out)
	}
}

func TestScenario5_CleanupOfAbandonedPriorShift(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()

	staleDate := mustParse(t, "2006-01-02", "2025-01-14")
	staleIn := mustParse(t, layout, "2025-01-14 08:00:00")
	s.nextID = 1
	ti := staleIn
	s.rows = append(s.rows, &domain.AttendanceRow{ID: 1, EmployeeID: "05233", DateStamp: staleDate, TimeIn: &ti, IPIn: "10.0.0.9"})

	e := newEngine(s)

	newIn := mustParse(t, layout, "2025-01-15 08:05:00")
	outcome, err := e.Process(ctx, domain.Punch{EmployeeID: "05233", DeviceIP: "10.0.0.1", Timestamp: newIn})
	if err != nil || outcome != domain.OutcomeCleanedThenOpened {
		t.Fatalf("outcome=%v err=%v", outcome, err)
	}

	if len(s.rows) != 2 {
		t.Fatalf("want 2 rows (closed stale + new open), got %d", len(s.rows))
	}
	stale := s.rows[0]
	if stale.IPOut != domain.AutoCleanupSentinel {
		t.Fatalf("stale row ip_out = %q, want %q", stale.IPOut, domain.AutoCleanupSentinel)
	}
	if stale.TimeOut == nil || !stale.TimeOut.Equal(staleIn) {
		t.Fatalf("stale row time_out = %v, want synthetic fallback %v", stale.TimeOut, staleIn)
	}

	fresh := s.rows[1]
	if fresh.TimeIn == nil || !fresh.TimeIn.Equal(newIn) {
		t.Fatalf("fresh row time_in = %v, want %v", fresh.TimeIn, newIn)
	}
}

func TestScenario6_OutOnlyOnLateFirstPunch(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()

	datePeriod := mustParse(t, "2006-01-02", "2025-01-15")
	s.addShift("05233", domain.Shift{DatePeriod: datePeriod, InTmp: 8 * time.Hour, OutTmp: 17 * time.Hour})

	e := newEngine(s)

	late := mustParse(t, layout, "2025-01-15 16:30:00")
	outcome, err := e.Process(ctx, domain.Punch{EmployeeID: "05233", DeviceIP: "10.0.0.1", Timestamp: late})
	if err != nil || outcome != domain.OutcomeOutOnly {
		t.Fatalf("outcome=%v err=%v", outcome, err)
	}

	if len(s.rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(s.rows))
	}
	row := s.rows[0]
	if row.TimeIn != nil {
		t.Fatalf("time_in should be nil, got %v", row.TimeIn)
	}
	if row.TimeOut == nil || !row.TimeOut.Equal(late) {
		t.Fatalf("time_out = %v, want %v", row.TimeOut, late)
	}
	if !row.DateStamp.Equal(datePeriod) {
		t.Fatalf("date_stamp = %v, want %v", row.DateStamp, datePeriod)
	}
}

func TestP6_HolidayBypassFollowsFallbackPath(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()

	datePeriod := mustParse(t, "2006-01-02", "2025-01-15")
	s.addShift("05233", domain.Shift{DatePeriod: datePeriod, Holiday: true, InTmp: 0, OutTmp: 0})

	e := newEngine(s)

	t1 := mustParse(t, layout, "2025-01-15 09:00:00")
	outcome, err := e.Process(ctx, domain.Punch{EmployeeID: "05233", DeviceIP: "10.0.0.1", Timestamp: t1})
	if err != nil || outcome != domain.OutcomeOpened {
		t.Fatalf("outcome=%v err=%v", outcome, err)
	}
}
