// Package kverr defines the closed error taxonomy used across the store,
// engine, and service layers (spec §7). Callers construct one of the
// sentinel kinds with New/Wrap; the transport adapter (pkg/rpcserver) is
// the only layer that translates a Kind into a transport-level status.
package kverr

import (
	"errors"
	"fmt"
)

// Kind is the closed tagged enum of error categories (spec §7).
type Kind int

const (
	// Internal covers any unmapped failure.
	Internal Kind = iota
	// InvalidArgument covers malformed request input: bad sizes, an
	// out-of-range index, a hash/data mismatch, or a non-field-element hash.
	InvalidArgument
	// Precondition covers a referenced record that was required but absent.
	Precondition
	// InconsistentData covers a stored record that fails an invariant.
	InconsistentData
	// Backend covers store-level failure: connectivity, write concern, timeout.
	Backend
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case Precondition:
		return "precondition"
	case InconsistentData:
		return "inconsistent_data"
	case Backend:
		return "backend"
	default:
		return "internal"
	}
}

// Error pairs a Kind with a message and optional wrapped cause.
type Error struct {
	Kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind, preserving cause for errors.Is/As.
func Wrap(kind Kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the Kind of err, defaulting to Internal when err is not
// (or does not wrap) a *kverr.Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
