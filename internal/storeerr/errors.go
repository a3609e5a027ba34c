// Package storeerr provides the five structured error kinds named in
// spec §7: TransientStore, PermanentStore, DeviceTransport, MalformedPunch,
// and ConfigError. Classification from raw MSSQL errors lives alongside the
// store implementation in internal/infrastructure/mssql/classify.go.
package storeerr

import (
	stderrs "errors"
	"fmt"
)

// Kind classifies an error for the propagation policy in spec §7.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTransientStore
	KindPermanentStore
	KindDeviceTransport
	KindMalformedPunch
	KindConfigError
)

func (k Kind) String() string {
	switch k {
	case KindTransientStore:
		return "transient_store"
	case KindPermanentStore:
		return "permanent_store"
	case KindDeviceTransport:
		return "device_transport"
	case KindMalformedPunch:
		return "malformed_punch"
	case KindConfigError:
		return "config_error"
	default:
		return "unknown"
	}
}

// Error is the structured error type carried through the engine, store,
// and device client. op is a short operation label (e.g. "mssql.update_close").
type Error struct {
	orig error
	msg  string
	kind Kind
	op   string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.orig }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Op returns the operation label, if set.
func (e *Error) Op() string { return e.op }

// Wrap returns a new *Error wrapping orig with the given kind and message.
func Wrap(orig error, kind Kind, msg string) error {
	return &Error{orig: orig, kind: kind, msg: msg}
}

// Wrapf is the formatted variant of Wrap.
func Wrapf(orig error, kind Kind, format string, a ...any) error {
	return &Error{orig: orig, kind: kind, msg: fmt.Sprintf(format, a...)}
}

// New returns a new *Error with no wrapped cause.
func New(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// As extracts a *Error from err, if present.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf extracts the Kind from any error, defaulting to KindUnknown.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.kind
	}
	return KindUnknown
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// IsTransient reports whether err should be treated as retryable by the
// worker's outer loop (spec §7's TransientStore propagation policy).
func IsTransient(err error) bool { return Is(err, KindTransientStore) }

// IsPermanent reports whether err should suspend store operations until the
// next reconnect (spec §7's PermanentStore propagation policy).
func IsPermanent(err error) bool { return Is(err, KindPermanentStore) }

// Root returns the deepest wrapped cause.
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}
