// Package errors provides centralized error definitions for prodcon.
//
// Core counter operations never fail: a decrement at zero and an increment
// at the maximum are no-ops. The errors here cover the edges around the
// core (registering timers, posting to a closed queue) and the one fatal
// condition, a violated core invariant.
//
// # Usage
//
//	if errors.Is(err, errors.ErrTimerLimit) { ... }
//
//	var inv *errors.InvariantError
//	if errors.As(recovered, &inv) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityWarning is for rejected requests that leave the core intact.
	SeverityWarning Severity = iota
	// SeverityError is for failures the caller should surface.
	SeverityError
	// SeverityCritical is for violated invariants. These are defects.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Sentinel errors
var (
	// ErrClosed indicates the component was shut down.
	ErrClosed = New("closed")
	// ErrInvalidTimer indicates a timer was requested with a non-positive
	// period or a negative jitter bound.
	ErrInvalidTimer = New("invalid timer")
	// ErrTimerLimit indicates the configured timer cap was reached.
	ErrTimerLimit = New("timer limit reached")
)

// InvariantError reports a core invariant that no longer holds.
type InvariantError struct {
	Invariant string // e.g. "count >= 0"
	Observed  any    // the offending value
}

// NewInvariantError creates an InvariantError.
func NewInvariantError(invariant string, observed any) *InvariantError {
	return &InvariantError{Invariant: invariant, Observed: observed}
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated: %s (observed %v)", e.Invariant, e.Observed)
}

// Severity always reports SeverityCritical.
func (e *InvariantError) Severity() Severity {
	return SeverityCritical
}

// TimerError wraps a registration failure with the requested timer attributes.
type TimerError struct {
	Role   string
	Period string
	cause  error
}

// NewTimerError creates a TimerError wrapping cause.
func NewTimerError(role, period string, cause error) *TimerError {
	return &TimerError{Role: role, Period: period, cause: cause}
}

// Error implements the error interface.
func (e *TimerError) Error() string {
	return fmt.Sprintf("register %s timer (period %s): %v", e.Role, e.Period, e.cause)
}

// Unwrap returns the underlying error.
func (e *TimerError) Unwrap() error {
	return e.cause
}

// Severity classifies the error. A reached cap is a warning; anything else
// is an error.
func (e *TimerError) Severity() Severity {
	if errors.Is(e.cause, ErrTimerLimit) {
		return SeverityWarning
	}
	return SeverityError
}

// SeverityOf returns the severity of err, defaulting to SeverityError for
// errors that do not classify themselves.
func SeverityOf(err error) Severity {
	var s interface{ Severity() Severity }
	if As(err, &s) {
		return s.Severity()
	}
	return SeverityError
}
