// Package errs defines the error taxonomy of the review engine.
//
// ValidationError and NotFoundError are terminal and caller-fixable;
// TransientError marks store/cache unavailability and is retried only at the
// next orchestrator tick; InvariantError marks a programming defect detected
// during a computation (the affected item is skipped, never the whole batch).
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input to a scheduling or feedback call
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for the named field
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports an absent user, problem or schedule item
type NotFoundError struct {
	Entity string
	ID     interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError for the named entity
func NotFound(entity string, id interface{}) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// TransientError reports a temporarily unavailable store or cache
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError for the named operation
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// InvariantError reports a computation result that should be impossible,
// e.g. a non-positive interval or an out-of-range level
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("computation invariant violated: %s", e.Detail)
}

// Invariant builds an InvariantError with the given detail
func Invariant(format string, args ...interface{}) error {
	return &InvariantError{Detail: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// IsTransient reports whether err is a TransientError
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsInvariant reports whether err is an InvariantError
func IsInvariant(err error) bool {
	var i *InvariantError
	return errors.As(err, &i)
}
