package reconcile

import "time"

// Fixed parameters of the state machine (spec §4.4) — fixed by design, not
// configurable per deployment.
const (
	DupWindow     = 1 * time.Hour
	AmendWindow   = 1 * time.Hour
	MaxOpenAge    = 16 * time.Hour
	StaleShiftAge = 20 * time.Hour

	// subMinute is the exclusive upper bound of the DISCARD window in Step C.1.
	subMinute = 60 * time.Second
)
