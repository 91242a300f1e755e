package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for box model operations.
var (
	// ErrZeroLossRate indicates a loss rate of exactly zero where it divides
	// the emissions to form the steady-state term.
	ErrZeroLossRate = errors.New("dynamo: loss rate must be non-zero")

	// ErrShortForcing indicates a time-varying forcing with fewer values than
	// the number of integration steps.
	ErrShortForcing = errors.New("dynamo: time-varying forcing shorter than required")

	// ErrEmptyYears indicates a time grid without any year.
	ErrEmptyYears = errors.New("dynamo: year series must contain at least one year")

	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates series that should be index-aligned but differ in length.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between series")
)

// DomainError wraps a domain error with the operation and step where it was
// detected. Step is -1 when the error is not tied to a step.
type DomainError struct {
	Op      string
	Step    int
	Detail  string
	Wrapped error
}

func (e *DomainError) Error() string {
	msg := e.Wrapped.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Step >= 0 {
		msg = fmt.Sprintf("%s (step %d)", msg, e.Step)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Wrapped
}

// NewDomainError builds a DomainError not tied to a particular step.
func NewDomainError(op string, wrapped error, detail string) *DomainError {
	return &DomainError{Op: op, Step: -1, Detail: detail, Wrapped: wrapped}
}
