// Package errors provides the structured error type returned by the engine.
//
// Every failure surfaced to a caller carries a Kind (validation, authorization,
// consistency, not found), a machine-readable Code and optional Params such as
// the maximum registrable percentage.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrInconsistent = errors.New("consistency failure")
)

// Kind classifies an AppError.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindConsistency   Kind = "consistency"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// AppError is a structured application error.
type AppError struct {
	// Kind groups the error into the engine's failure taxonomy.
	Kind Kind `json:"kind"`

	// Code is a machine-readable error code (e.g., "EXCEEDS_REMAINING_CAPACITY").
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Params carries structured context, e.g. the computed boundary of a rejected write.
	Params map[string]interface{} `json:"params,omitempty"`

	// FieldErrors carries field-level validation details.
	FieldErrors []FieldError `json:"field_errors,omitempty"`

	// Err is the wrapped underlying error.
	Err error `json:"-"`
}

// FieldError describes a field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels so callers can write errors.Is(err, ErrForbidden).
func (e *AppError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrForbidden:
		return e.Kind == KindAuthorization
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrInconsistent:
		return e.Kind == KindConsistency
	}
	return false
}

// New creates a new AppError.
func New(kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error into an AppError.
func Wrap(err error, kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithParams attaches structured parameters to the error.
func (e *AppError) WithParams(params map[string]interface{}) *AppError {
	if e == nil || len(params) == 0 {
		return e
	}
	e.Params = params
	return e
}

// WithFieldErrors attaches field-level errors to the AppError.
func (e *AppError) WithFieldErrors(fieldErrors []FieldError) *AppError {
	if e == nil || len(fieldErrors) == 0 {
		return e
	}
	e.FieldErrors = fieldErrors
	return e
}

// Common error constructors.

// Validation creates a user-correctable error.
func Validation(code, message string) *AppError {
	return New(KindValidation, code, message)
}

// Forbidden creates an authorization error.
func Forbidden(code, message string) *AppError {
	return New(KindAuthorization, code, message)
}

// Consistency creates an error for data that should never occur under correct use.
func Consistency(code, message string) *AppError {
	return New(KindConsistency, code, message)
}

// NotFound creates a missing-entity error.
func NotFound(code, message string) *AppError {
	return New(KindNotFound, code, message)
}

// IsAppError checks if an error is an AppError and returns it.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Kind == kind
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Code == code
}
