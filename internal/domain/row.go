package domain

import "time"

// AutoCleanupSentinel is written to IPOut when the Janitor (or the engine's
// own Step A) synthesizes a TimeOut for a row nobody ever punched out of.
const AutoCleanupSentinel = "AUTO_CLEANUP"

// Outcome records which branch of the reconciliation engine produced or
// touched a row. It exists for logging/metrics only and is never persisted.
type Outcome string

const (
	OutcomeOpened            Outcome = "opened"
	OutcomeOutOnly           Outcome = "out_only"
	OutcomeClosed            Outcome = "closed"
	OutcomeAmended           Outcome = "amended"
	OutcomeDiscarded         Outcome = "discarded"
	OutcomeCleanedThenOpened Outcome = "cleaned_then_opened"
)

// AttendanceRow mirrors one row of TimeAttandanceLog. A row is open while
// TimeOut is nil; it is mutated in place to set or overwrite TimeOut/IPOut
// and is never deleted by this system.
type AttendanceRow struct {
	ID         int64
	EmployeeID string
	DateStamp  time.Time // logical day the row belongs to, date-only
	TimeIn     *time.Time
	TimeOut    *time.Time
	IPIn       string
	IPOut      string
}

// IsOpen reports whether the row still awaits a check-out punch.
func (r *AttendanceRow) IsOpen() bool {
	return r.TimeOut == nil
}

// IsCleanupClose reports whether the row's TimeOut was synthesized rather
// than observed from a real punch.
func (r *AttendanceRow) IsCleanupClose() bool {
	return r.IPOut == AutoCleanupSentinel
}
