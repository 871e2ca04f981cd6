// Package errs enumerates the failure modes of the hash tree core. Each
// kind is a sentinel wrapped with github.com/pkg/errors so that callers
// can both match on kind (errors.Is / errors.As) and get a captured stack
// trace for diagnostics, matching how the rest of this codebase reports
// storage-layer failures.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the nine failure modes the core can report.
type Kind int

const (
	// BadMagic means the storage header's three identifier bytes don't
	// match the expected 01 F3 33.
	BadMagic Kind = iota
	// IncompatibleVersion means the storage header's version byte is
	// newer than this build knows how to read.
	IncompatibleVersion
	// DamagedStorage means the tail offset/length bookkeeping disagreed
	// with what could actually be read back, or a read was truncated.
	DamagedStorage
	// ChecksumMismatch means a stored entry's checksum no longer matches
	// its recomputed value.
	ChecksumMismatch
	// BadHeadOffset means an entry's trailing self-offset disagrees with
	// the length of the body actually parsed.
	BadHeadOffset
	// BadNodeBoundary means an entry's index didn't match the index the
	// caller expected to find there.
	BadNodeBoundary
	// PayloadTooLarge means an append's payload exceeds MAX_PAYLOAD_SIZE.
	PayloadTooLarge
	// OpenFailed wraps an OS-level failure to open the backing file.
	OpenFailed
	// Inconsistent means a node the algorithm expected to find was
	// absent, or a bounded descent exceeded its hop limit — both signal
	// a bug or on-disk corruption rather than a normal error condition.
	Inconsistent
)

func (k Kind) String() string {
	switch k {
	case BadMagic:
		return "bad magic"
	case IncompatibleVersion:
		return "incompatible version"
	case DamagedStorage:
		return "damaged storage"
	case ChecksumMismatch:
		return "checksum verification failed"
	case BadHeadOffset:
		return "incorrect entry head offset"
	case BadNodeBoundary:
		return "incorrect node boundary"
	case PayloadTooLarge:
		return "too large payload"
	case OpenFailed:
		return "failed to open local file"
	case Inconsistent:
		return "internal state inconsistency"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type returned by the core. It always
// carries a Kind so callers can branch with errors.As, plus whatever
// contextual fields apply to that kind.
type Error struct {
	Kind Kind
	msg  string
	// Offset/Length/Expected/Actual are populated for ChecksumMismatch.
	Offset, Length   int64
	Expected, Actual uint64
	cause            error
}

func (e *Error) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.msg)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Is makes errors.Is(err, &Error{Kind: k}) report true for any *Error of
// kind k by comparing Kind; to match on a bare Kind, use the package-level
// Is instead.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a bare Error of the given kind with a message, with a stack
// trace captured at the call site.
func New(kind Kind, msg string) error {
	return errors.WithStack(&Error{Kind: kind, msg: msg})
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap attaches a Kind and message to an underlying cause, preserving it
// for Unwrap and for github.com/pkg/errors' stack-trace formatting.
func Wrap(cause error, kind Kind, msg string) error {
	return errors.WithStack(&Error{Kind: kind, msg: msg, cause: cause})
}

// ChecksumError reports a checksum mismatch together with the offset,
// length, and expected/actual values needed to diagnose it.
func ChecksumError(offset, length int64, expected, actual uint64) error {
	return errors.WithStack(&Error{
		Kind:     ChecksumMismatch,
		msg:      fmt.Sprintf("at offset %d, length %d", offset, length),
		Offset:   offset,
		Length:   length,
		Expected: expected,
		Actual:   actual,
	})
}

// Is reports whether err is an *Error of the given kind, looking through
// any wrapping via errors.As.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
