// Package deviceclient defines the contractual boundary named in spec §1:
// "the library that yields a lazy sequence of attendance events per
// device... the core consumes (employee_id, raw_timestamp, status,
// punch_kind) tuples." The ZKTeco binary wire protocol itself is explicitly
// out of scope; Terminal and FrameDecoder are the seam a real
// terminal-protocol implementation plugs into.
package deviceclient

import (
	"context"
	"time"
)

// RawEvent is the opaque tuple a terminal emits before normalization.
// Status and Kind are pass-through fields, unused by reconciliation
// (spec §3).
type RawEvent struct {
	EmployeeID string
	Instant    time.Time
	Status     int
	Kind       int
}

// Terminal is one biometric device's live event stream.
type Terminal interface {
	// Connect dials the terminal. ctx bounds the connect attempt (10s per
	// spec §5).
	Connect(ctx context.Context) error

	// Events returns a channel of raw events. The channel is closed when
	// the terminal disconnects or ctx is done; the caller inspects Err
	// after the channel closes to distinguish a clean stop from a
	// transport failure.
	Events(ctx context.Context) <-chan RawEvent

	// Err returns the error that closed the Events channel, if any.
	Err() error

	// Close releases any resources held by the terminal connection.
	Close() error
}
