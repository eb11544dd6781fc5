package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Validation (lifecycle invariants, checked on every persist attempt)
	ErrCodeInvalidStatus       ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidDuration     ErrorCode = "INVALID_DURATION"
	ErrCodeInvalidRating       ErrorCode = "INVALID_RATING"
	ErrCodeMissingComment      ErrorCode = "MISSING_COMMENT"
	ErrCodeMissingMeetingTime  ErrorCode = "MISSING_MEETING_TIME"
	ErrCodeMissingConfirmed    ErrorCode = "MISSING_CONFIRMED_TIME"
	ErrCodeMissingSuggested    ErrorCode = "MISSING_SUGGESTED_TIME"
	ErrCodeMissingPurpose      ErrorCode = "MISSING_PURPOSE"
	ErrCodeFeedbackAlreadySent ErrorCode = "FEEDBACK_ALREADY_SENT"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeConflict ErrorCode = "CONFLICT"

	// Internal
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// ValidationError is a structured invariant failure. Field names the offending
// attribute when the failure is attributable to one.
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validation creates a new ValidationError.
func Validation(code ErrorCode, field, message string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError, optionally of a
// specific code (pass "" to match any).
func IsValidation(err error, code ErrorCode) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	return code == "" || ve.Code == code
}

// AppError is a structured non-validation failure with an underlying cause.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, cause: cause}
}

// Common error constructors

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}
