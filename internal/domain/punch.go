package domain

import "time"

// PunchKind distinguishes a raw punch event as reported by a terminal.
// ZKTeco terminals report this as a small integer status code; the device
// client is responsible for normalizing it to one of these values before
// the punch reaches the reconciliation engine.
type PunchKind int

const (
	PunchKindUnknown PunchKind = iota
	PunchKindCheckIn
	PunchKindCheckOut
)

// Punch is one normalized attendance event read off a terminal stream.
// EmployeeID is always zero-padded to 5 characters (mirroring the source
// system's EmpId column); a raw terminal user ID that is empty or cannot be
// normalized is dropped by the device client before it ever becomes a Punch.
type Punch struct {
	DeviceIP   string
	EmployeeID string
	Timestamp  time.Time
	Kind       PunchKind
}
