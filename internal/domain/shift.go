package domain

import "time"

// AdmissionPre and AdmissionPost are the fixed margins around a shift's
// window within which a punch is attributed to that shift (spec §3).
const (
	AdmissionPre  = 4 * time.Hour
	AdmissionPost = 8 * time.Hour
)

// Shift is one row of the read-only VListPeriodEmployee plan view, already
// reduced to the fields the engine needs.
type Shift struct {
	DatePeriod time.Time // date-only
	InTmp      time.Duration // time-of-day offset from midnight
	OutTmp     time.Duration
	Holiday    bool
}

// IsBypass reports whether this plan row should be ignored during shift
// selection: a holiday row with a zero planned start time is treated as
// "no planned shift" (spec §3, resolved Open Question in DESIGN.md).
func (s Shift) IsBypass() bool {
	return s.Holiday && s.InTmp == 0
}

// Window returns the shift's half-open [start, end) interval, applying the
// overnight-wrap rule: if end would not be strictly after start, it is
// advanced by 24h.
func (s Shift) Window() (start, end time.Time) {
	start = s.DatePeriod.Add(s.InTmp)
	end = s.DatePeriod.Add(s.OutTmp)
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end
}

// AdmissionWindow returns [shift_start-4h, shift_end+8h], the interval
// within which a punch is attributed to this shift.
func (s Shift) AdmissionWindow() (start, end time.Time) {
	ws, we := s.Window()
	return ws.Add(-AdmissionPre), we.Add(AdmissionPost)
}

// Admits reports whether instant t falls within this shift's admission
// window.
func (s Shift) Admits(t time.Time) bool {
	start, end := s.AdmissionWindow()
	return !t.Before(start) && !t.After(end)
}

// Midpoint returns shift_start + (shift_end-shift_start)/2, used by Step D
// to decide whether a first punch with no prior row opens a TimeIn or an
// out-only row.
func (s Shift) Midpoint() time.Time {
	start, end := s.Window()
	return start.Add(end.Sub(start) / 2)
}
