// Package errs holds the error taxonomy shared by the GP packages. Every
// error returned by the engine wraps one of the sentinels below, so callers
// branch with errors.Is and pull numeric context out with errors.As.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHyperparameters = errors.New("invalid hyperparameters")
	ErrDimensionMismatch      = errors.New("dimension mismatch")
	ErrNotPositiveDefinite    = errors.New("matrix not positive definite")
	ErrEmptyQuerySet          = errors.New("empty query set")
	ErrProblemTooLarge        = errors.New("problem too large for dense factorization")
	ErrInvalidObservation     = errors.New("invalid observation")
)

type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *Error {
	return &Error{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *Error {
	return &Error{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// NumericError reports a factorization that failed after the jitter policy
// was exhausted.
type NumericError struct {
	Err      error
	Size     int     // Order of the matrix.
	Jitter   float64 // Largest diagonal jitter attempted.
	Attempts int     // Factorizations tried, including the unjittered one.
	Reason   string
}

func (e *NumericError) Error() string {
	msg := fmt.Sprintf("%s: n=%d, jitter=%.3g, attempts=%d",
		e.Err.Error(), e.Size, e.Jitter, e.Attempts)
	if e.Reason != "" {
		msg += ", " + e.Reason
	}
	return msg
}

func (e *NumericError) Unwrap() error {
	return e.Err
}

// IsNumeric reports whether err carries a *NumericError.
func IsNumeric(err error) bool {
	var numErr *NumericError
	return errors.As(err, &numErr)
}
