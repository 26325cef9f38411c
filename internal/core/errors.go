package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Use errors.Is against these and
// errors.As against the typed errors below for details.
var (
	ErrInsufficientData = errors.New("insufficient price data")
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("record not found")
	ErrStoreIO          = errors.New("log store i/o failed")
)

// InsufficientDataError is returned by Resolve when neither a normal nor a
// purchase price was supplied.
type InsufficientDataError struct{}

func (e *InsufficientDataError) Error() string {
	return "at least one of normal price or purchase price is required"
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// ValidationError reports a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a missing edit/delete target.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %q not found", e.Ref)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound returns a *NotFoundError for ref.
func NewNotFound(ref string) error {
	return &NotFoundError{Ref: ref}
}

// StoreIOError wraps a failure of the backing medium. It unwraps to both
// ErrStoreIO and the underlying cause.
type StoreIOError struct {
	Op  string
	Err error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("log store %s: %v", e.Op, e.Err)
}

func (e *StoreIOError) Unwrap() []error { return []error{ErrStoreIO, e.Err} }

// NewStoreIO wraps err as a *StoreIOError for op. A nil err stays nil.
func NewStoreIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreIOError{Op: op, Err: err}
}
