// Package apperr defines the error taxonomy shared by the domain services:
// input validation failures, unresolvable references and opaque store failures.
package apperr

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ValidationError indicates the caller supplied input that cannot be accepted.
// The operation is not attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid returns a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ReferenceNotFoundError indicates that an identifier referenced by the request
// (an employee or a menu item) no longer resolves.
type ReferenceNotFoundError struct {
	Kind string
	ID   string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// PersistenceError wraps a failure reported by the backing store. The
// underlying message is preserved for diagnostics.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError for op. A nil err stays nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsReferenceNotFound reports whether err carries a ReferenceNotFoundError.
func IsReferenceNotFound(err error) bool {
	var r *ReferenceNotFoundError
	return errors.As(err, &r)
}
