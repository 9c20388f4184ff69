package shared

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable code attached to every engine error. Callers match
// on the kind, never on message text.
type ErrorKind string

const (
	// KindInvalidInput marks out-of-range HOS hours, non-positive capacities,
	// malformed requests. No state changes occur.
	KindInvalidInput ErrorKind = "invalid_input"

	// KindInsufficientData marks a distance, rest area, or fuel station that
	// is unavailable at simulation time. Recorded as a feasibility issue.
	KindInsufficientData ErrorKind = "insufficient_data"

	// KindProviderFailure marks a failed or timed-out provider call after the
	// retry budget is exhausted.
	KindProviderFailure ErrorKind = "provider_failure"

	// KindStorePrecondition marks an operation against a missing plan or an
	// illegal status transition. No state changes occur.
	KindStorePrecondition ErrorKind = "store_precondition_failure"

	// KindConcurrencyConflict marks a replan that could not acquire the
	// per-driver lock before its deadline.
	KindConcurrencyConflict ErrorKind = "concurrency_conflict"

	// KindFatal marks an invariant violation inside the simulator. Never
	// auto-retried; requires operator attention.
	KindFatal ErrorKind = "fatal"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrInvalidInput        = &EngineError{Kind: KindInvalidInput}
	ErrInsufficientData    = &EngineError{Kind: KindInsufficientData}
	ErrProviderFailure     = &EngineError{Kind: KindProviderFailure}
	ErrStorePrecondition   = &EngineError{Kind: KindStorePrecondition}
	ErrConcurrencyConflict = &EngineError{Kind: KindConcurrencyConflict}
	ErrFatal               = &EngineError{Kind: KindFatal}
)

// EngineError is the base error type for all engine errors. User-visible
// failures always include the plan ID (when one exists) and the kind code.
type EngineError struct {
	Kind    ErrorKind
	PlanID  string
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.PlanID != "" {
		return fmt.Sprintf("%s [plan %s]: %s", e.Kind, e.PlanID, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches any EngineError of the same kind, so callers can write
// errors.Is(err, shared.ErrInvalidInput).
func (e *EngineError) Is(target error) bool {
	var other *EngineError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// NewInvalidInput creates an InvalidInput error
func NewInvalidInput(format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NewInsufficientData creates an InsufficientData error
func NewInsufficientData(format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: KindInsufficientData, Message: fmt.Sprintf(format, args...)}
}

// NewProviderFailure wraps a provider error after retries are exhausted
func NewProviderFailure(err error, message string) *EngineError {
	return &EngineError{Kind: KindProviderFailure, Message: message, Err: err}
}

// NewStorePrecondition creates a StorePreconditionFailure error for a plan
func NewStorePrecondition(planID, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: KindStorePrecondition, PlanID: planID, Message: fmt.Sprintf(format, args...)}
}

// NewConcurrencyConflict creates a ConcurrencyConflict error for a driver's plan
func NewConcurrencyConflict(planID, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: KindConcurrencyConflict, PlanID: planID, Message: fmt.Sprintf(format, args...)}
}

// NewFatal creates a Fatal invariant-violation error carrying the full state
// snapshot in its message
func NewFatal(planID, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: KindFatal, PlanID: planID, Message: fmt.Sprintf(format, args...)}
}
