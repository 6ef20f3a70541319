/*package errs defines the failure taxonomy shared by the aggregation engines
and the fractal analyzer.

Every failure is returned as an *Error carrying a Kind. Callers test for a kind
with errors.Is against the package sentinels:

	if errors.Is(err, errs.ErrNonConvergent) { ... }

Nothing in this module retries on its own; deciding what to do with an Error
is the caller's job.
*/
package errs

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// InvalidParameters is returned before any state is mutated.
	InvalidParameters Kind = iota
	// NonConvergent means an attempt or step budget was exhausted.
	NonConvergent
	// ResourceExhaustion means the geometry could not be built within the
	// allowed memory or domain.
	ResourceExhaustion
	// NumericDegeneracy means a regression had fewer than two usable points.
	NumericDegeneracy
	// Canceled means the caller's context was canceled.
	Canceled
	// Timeout means the caller's deadline passed.
	Timeout
)

func (k Kind) String() string {
	switch k {
	case InvalidParameters:
		return "invalid parameters"
	case NonConvergent:
		return "non-convergent"
	case ResourceExhaustion:
		return "resource exhaustion"
	case NumericDegeneracy:
		return "numeric degeneracy"
	case Canceled:
		return "canceled"
	case Timeout:
		return "timeout"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is. They are themselves *Error values, so wrapping one
// with fmt.Errorf("%w") keeps its kind.
var (
	ErrInvalidParameters  = &Error{Kind: InvalidParameters}
	ErrNonConvergent      = &Error{Kind: NonConvergent}
	ErrResourceExhaustion = &Error{Kind: ResourceExhaustion}
	ErrNumericDegeneracy  = &Error{Kind: NumericDegeneracy}
	ErrCanceled           = &Error{Kind: Canceled}
	ErrTimeout            = &Error{Kind: Timeout}
)

// Error is a typed failure. Partial optionally holds whatever was built before
// the failure, for diagnostics; it is never a success result.
type Error struct {
	Kind    Kind
	Op      string
	Partial any
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New returns an *Error of the given kind with a formatted message.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Invalid is shorthand for an InvalidParameters error.
func Invalid(op, format string, args ...any) *Error {
	return New(InvalidParameters, op, format, args...)
}

// FromContext converts a context error into a Canceled or Timeout *Error.
func FromContext(op string, err error, partial any) *Error {
	kind := Canceled
	if errors.Is(err, context.DeadlineExceeded) {
		kind = Timeout
	}
	return &Error{Kind: kind, Op: op, Partial: partial, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
