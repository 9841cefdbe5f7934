// Package synerr classifies the four error kinds from the design
// (Configuration, I/O, Protocol, Invariant) and marks which errors are
// fatal to a session. It mirrors the teacher corpus's Fatal/IsFatal split
// (a process-fatal error is data, not a hidden abort inside library code)
// while layering github.com/pkg/errors for stack-preserving wraps.
package synerr

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Kind names one of the four error categories from the error handling
// design. All four are fatal to the session; Kind exists so the
// supervisor can log which category failed, not to drive different
// recovery paths — there is none.
type Kind int

const (
	// Configuration covers missing files, unreachable addresses, bad ports.
	Configuration Kind = iota
	// IO covers file open/read/write failures and socket failures.
	IO
	// Protocol covers anything the wire dialogue itself rejects: bad
	// tokens, out-of-range sizes, a zero hash, a chunk-number mismatch, a
	// version or filesize mismatch.
	Protocol
	// Invariant covers internal conditions that should never happen:
	// non-monotonic chunk numbers, queue misuse.
	Invariant
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case IO:
		return "io"
	case Protocol:
		return "protocol"
	case Invariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// fatalError wraps an underlying error with its Kind, and marks it fatal:
// there is no retry and no partial recovery for any of the four kinds.
type fatalError struct {
	kind Kind
	err  error
}

func (e *fatalError) Error() string { return e.kind.String() + ": " + e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps err as a fatal error of the given kind. If err is nil, Fatal
// returns nil.
func Fatal(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{kind: kind, err: err}
}

// Fatalf is Fatal with a formatted message, analogous to errors.Errorf.
func Fatalf(kind Kind, format string, args ...interface{}) error {
	return &fatalError{kind: kind, err: errors.Errorf(format, args...)}
}

// IsFatal reports whether err (or anything it wraps) was produced by Fatal
// or Fatalf.
func IsFatal(err error) bool {
	var fe *fatalError
	return stderrors.As(err, &fe)
}

// KindOf returns the Kind attached to err by Fatal/Fatalf, and ok=false if
// err was not marked fatal.
func KindOf(err error) (kind Kind, ok bool) {
	var fe *fatalError
	if stderrors.As(err, &fe) {
		return fe.kind, true
	}
	return 0, false
}
