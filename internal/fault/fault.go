// Package fault classifies pipeline failures so that each stage can decide
// whether to retry, degrade to a sentinel value, or surface an error.
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the failure class carried by an Error.
type Kind int

const (
	// None marks a successful outcome.
	None Kind = iota
	// Transient failures (network hiccups, timeouts, 5xx, parse errors) are
	// eligible for retry.
	Transient
	// Permanent failures (missing or ambiguous resource, bad request) are
	// never retried.
	Permanent
	// BackendUnavailable means a summarization backend failed to initialize
	// or failed irrecoverably.
	BackendUnavailable
	// Unexpected covers anything not anticipated by a component. It is only
	// produced at the pipeline boundary.
	Unexpected
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	case BackendUnavailable:
		return "backend_unavailable"
	case Unexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error tags an underlying error with a Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return e.Op + ": " + e.Kind.String() + " failure"
	default:
		return e.Kind.String() + " failure"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind and op. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Transientf builds a transient Error from a format string. %w is honored.
func Transientf(format string, args ...any) error {
	return &Error{Kind: Transient, Err: fmt.Errorf(format, args...)}
}

// Permanentf builds a permanent Error from a format string. %w is honored.
func Permanentf(format string, args ...any) error {
	return &Error{Kind: Permanent, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the failure class of err. Unclassified errors are treated
// as transient so that unknown hiccups still get their retries; a canceled
// or expired context is permanent because retrying cannot succeed.
func KindOf(err error) Kind {
	if err == nil {
		return None
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return Permanent
	}
	return Transient
}

// IsPermanent is shorthand for KindOf(err) == Permanent.
func IsPermanent(err error) bool { return KindOf(err) == Permanent }
