// Package clock provides an injectable source of wall-clock time and the
// timezone-offset application raw device timestamps require (spec §4.1).
package clock

import "time"

// Clock is a narrow source of wall-clock time, implemented by OffsetClock.
// The supervisor holds an OffsetClock directly; the engine and janitor do not
// use a Clock.
type Clock interface {
	Now() time.Time
}

// OffsetClock applies a fixed hour offset to every raw device timestamp it
// normalizes, mirroring _parse_attendance_timestamp's ATTENDANCE_TZ_OFFSET
// handling in the original implementation.
type OffsetClock struct {
	Offset time.Duration
}

// NewOffsetClock builds an OffsetClock from a configured offset in hours.
// config.Load already leniently parses ATTENDANCE_TZ_OFFSET, warning and
// substituting 0 for an invalid or out-of-range value, so offsetHours here
// is always safe to use as-is.
func NewOffsetClock(offsetHours int) OffsetClock {
	return OffsetClock{Offset: time.Duration(offsetHours) * time.Hour}
}

// Now returns the current wall-clock time. The offset does not apply to
// Now — only to raw device timestamps via Apply — because now() already
// reflects the host's own clock.
func (c OffsetClock) Now() time.Time {
	return time.Now()
}

// Apply adds the configured offset to a raw device timestamp.
func (c OffsetClock) Apply(t time.Time) time.Time {
	return t.Add(c.Offset)
}
