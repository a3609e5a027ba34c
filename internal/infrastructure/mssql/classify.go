package mssql

import (
	"context"
	stderrs "errors"
	"net"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pfp-attendance/engine/internal/storeerr"
)

// SQL Server error numbers we classify explicitly. Adapted from the
// Postgres-SQLSTATE-based classifier in ryansgi-swearjar's
// internal/platform/errors/pg.go (see DESIGN.md).
const (
	errDeadlockVictim  = 1205
	errLoginFailed     = 18456
	errTimeoutExpired  = -2
	errConnectionReset = 10054
	errServerNotFound  = 17
)

// classify maps a raw error from the mssql driver into a *storeerr.Error.
// Errors that don't carry a structured mssql.Error fall back to the same
// text-pattern tier swearjar's IsRetryable uses for driver-wrapped messages.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}

	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return storeerr.Wrap(err, storeerr.KindTransientStore, op)
	}

	var sqlErr mssql.Error
	if stderrs.As(err, &sqlErr) {
		switch sqlErr.Number {
		case errDeadlockVictim, errTimeoutExpired, errConnectionReset:
			return storeerr.Wrap(err, storeerr.KindTransientStore, op)
		case errLoginFailed, errServerNotFound:
			return storeerr.Wrap(err, storeerr.KindPermanentStore, op)
		default:
			return storeerr.Wrap(err, storeerr.KindPermanentStore, op)
		}
	}

	var netErr net.Error
	if stderrs.As(err, &netErr) && netErr.Timeout() {
		return storeerr.Wrap(err, storeerr.KindTransientStore, op)
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "deadlock"),
		strings.Contains(s, "timeout"),
		strings.Contains(s, "connection reset"),
		strings.Contains(s, "connection refused"),
		strings.Contains(s, "broken pipe"):
		return storeerr.Wrap(err, storeerr.KindTransientStore, op)
	}

	return storeerr.Wrap(err, storeerr.KindPermanentStore, op)
}
