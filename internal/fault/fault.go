// Package fault defines the error taxonomy shared by the core components.
// The first four kinds abort an operation before any mutation and surface
// to the caller; store errors pass through unchanged; audit errors are
// swallowed by the sink and never reach a caller.
package fault

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown record id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidStateTransition reports a workflow operation invoked from a state
// other than its required precondition. The ticket is left unmodified.
type InvalidStateTransition struct {
	Op       string
	Required string
	Actual   string
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("%s requires status %q, ticket is %q", e.Op, e.Required, e.Actual)
}

// PermissionDenied reports an actor acting outside its role, or a
// maker-checker violation.
type PermissionDenied struct {
	Msg string
}

func (e *PermissionDenied) Error() string { return e.Msg }

// Denied builds a PermissionDenied from a format string.
func Denied(format string, args ...any) error {
	return &PermissionDenied{Msg: fmt.Sprintf(format, args...)}
}

// StoreError wraps a record-store failure. The underlying error is carried
// unchanged; the core never retries.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %v", e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError. Errors already classified by the
// taxonomy are returned as-is.
func Store(err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		nf *NotFoundError
		st *InvalidStateTransition
		pd *PermissionDenied
		se *StoreError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &st) ||
		errors.As(err, &pd) || errors.As(err, &se) {
		return err
	}
	return &StoreError{Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsInvalidTransition reports whether err is an InvalidStateTransition.
func IsInvalidTransition(err error) bool {
	var e *InvalidStateTransition
	return errors.As(err, &e)
}

// IsDenied reports whether err is a PermissionDenied.
func IsDenied(err error) bool {
	var e *PermissionDenied
	return errors.As(err, &e)
}
