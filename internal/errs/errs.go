// Package errs implements the error taxonomy of the refinement loop:
// a small tagged error type distinguishing the control signals that
// are routed back to the driver from the true programming-error
// panics that the generator and evaluator raise and never recover
// from.
package errs

import "fmt"

// Kind classifies an error for the refinement driver's retry policy.
type Kind string

const (
	// Programming marks an invariant violation in the generator or
	// evaluator (e.g. an identifier out of range, an unreachable slot
	// size reaching genSize). These are never constructed as values —
	// they are raised via panic and never recovered. The
	// constant exists so callers that do recover at a process boundary
	// (e.g. a top-level CLI recover) can still tag the resulting error.
	Programming Kind = "programming"
	// Transport is a network-level failure talking to the oracle.
	// The oracle client makes a single attempt per request and
	// surfaces this kind without retrying.
	Transport Kind = "transport"
	// RateLimit means the oracle answered 429 or the client's local
	// request-window wait was cancelled. The client's limiter already
	// waits before every request; a RateLimit error itself is
	// returned to the caller, and no caller retries it.
	RateLimit Kind = "rate_limit"
	// Semantic is an oracle-reported bad-guess-format error. Reported
	// to the driver as a retryable Error(msg).
	Semantic Kind = "semantic"
	// Timeout is a search-coordinator deadline expiry. Surfaced to
	// the driver, problem marked failed.
	Timeout Kind = "timeout"
	// Protocol is a malformed oracle payload (JSON layer). Fatal.
	Protocol Kind = "protocol"
)

// Error is the concrete error type returned by the oracle client and
// the refinement driver.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind carrying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is an *Error of the given kind, unwrapping
// through any wrapping in between.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
