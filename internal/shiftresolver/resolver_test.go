package shiftresolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/pfp-attendance/engine/internal/domain"
	"github.com/pfp-attendance/engine/internal/shiftresolver"
)

type fakeStore struct {
	shiftsFor func(ctx context.Context, employeeID string, dates []time.Time) ([]domain.Shift, error)
}

func (f *fakeStore) LatestRowFor(context.Context, string) (*domain.AttendanceRow, error) { return nil, nil }
func (f *fakeStore) LatestRowOn(context.Context, string, time.Time) (*domain.AttendanceRow, error) {
	return nil, nil
}
func (f *fakeStore) FindOpenRowsOlderThan(context.Context, time.Time) ([]*domain.AttendanceRow, error) {
	return nil, nil
}
func (f *fakeStore) InsertOpen(context.Context, time.Time, string, string, time.Time) error { return nil }
func (f *fakeStore) InsertOutOnly(context.Context, time.Time, string, string, time.Time) error {
	return nil
}
func (f *fakeStore) UpdateClose(context.Context, int64, time.Time, string) error { return nil }
func (f *fakeStore) ShiftEndTimeFor(context.Context, string, time.Time) (time.Duration, bool, error) {
	return 0, false, nil
}
func (f *fakeStore) ShiftsFor(ctx context.Context, employeeID string, dates []time.Time) ([]domain.Shift, error) {
	return f.shiftsFor(ctx, employeeID, dates)
}
func (f *fakeStore) ListOpenRows(context.Context, time.Time) ([]*domain.AttendanceRow, error) {
	return nil, nil
}
func (f *fakeStore) ListActiveDevices(context.Context) ([]domain.Device, error) { return nil, nil }

func mustParse(t *testing.T, layout, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(layout, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func TestResolve_OvernightShiftAdmitsNextDayPunch(t *testing.T) {
	datePeriod := mustParse(t, "2006-01-02", "2025-01-15")
	shift := domain.Shift{DatePeriod: datePeriod, InTmp: 22 * time.Hour, OutTmp: 6 * time.Hour}

	store := &fakeStore{
		shiftsFor: func(_ context.Context, _ string, _ []time.Time) ([]domain.Shift, error) {
			return []domain.Shift{shift}, nil
		},
	}
	r := shiftresolver.New(store)

	instant := mustParse(t, "2006-01-02 15:04:05", "2025-01-16 06:10:00")
	got, err := r.Resolve(context.Background(), "05233", instant)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected a resolved shift, got nil")
	}
	if !got.DatePeriod.Equal(datePeriod) {
		t.Fatalf("resolved date_period = %v, want %v", got.DatePeriod, datePeriod)
	}
}

func TestResolve_HolidayBypassIsSkipped(t *testing.T) {
	datePeriod := mustParse(t, "2006-01-02", "2025-01-15")
	bypass := domain.Shift{DatePeriod: datePeriod, Holiday: true, InTmp: 0, OutTmp: 0}

	store := &fakeStore{
		shiftsFor: func(_ context.Context, _ string, _ []time.Time) ([]domain.Shift, error) {
			return []domain.Shift{bypass}, nil
		},
	}
	r := shiftresolver.New(store)

	instant := mustParse(t, "2006-01-02 15:04:05", "2025-01-15 09:00:00")
	got, err := r.Resolve(context.Background(), "05233", instant)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected bypass shift to be skipped, got %+v", got)
	}
}

func TestResolve_PrefersMostRecentDatePeriodOnTie(t *testing.T) {
	older := domain.Shift{
		DatePeriod: mustParse(t, "2006-01-02", "2025-01-14"),
		InTmp:      6 * time.Hour, OutTmp: 22 * time.Hour,
	}
	newer := domain.Shift{
		DatePeriod: mustParse(t, "2006-01-02", "2025-01-15"),
		InTmp:      6 * time.Hour, OutTmp: 22 * time.Hour,
	}

	store := &fakeStore{
		shiftsFor: func(_ context.Context, _ string, _ []time.Time) ([]domain.Shift, error) {
			return []domain.Shift{older, newer}, nil
		},
	}
	r := shiftresolver.New(store)

	// 05:00 on the 15th lies inside both admission windows
	// ([14th 02:00, 15th 06:00] and [15th 02:00, 16th 06:00]).
	instant := mustParse(t, "2006-01-02 15:04:05", "2025-01-15 05:00:00")
	got, err := r.Resolve(context.Background(), "05233", instant)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || !got.DatePeriod.Equal(newer.DatePeriod) {
		t.Fatalf("expected the newer date_period to win, got %+v", got)
	}
}

func TestResolve_NoCandidateReturnsNil(t *testing.T) {
	store := &fakeStore{
		shiftsFor: func(_ context.Context, _ string, _ []time.Time) ([]domain.Shift, error) {
			return nil, nil
		},
	}
	r := shiftresolver.New(store)

	instant := mustParse(t, "2006-01-02 15:04:05", "2025-01-15 09:00:00")
	got, err := r.Resolve(context.Background(), "05233", instant)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}
