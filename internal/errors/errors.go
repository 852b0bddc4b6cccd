package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a langroutes error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrNoDataFound      ErrorCode = "NO_DATA_FOUND"     // 404
	ErrTransportFailure ErrorCode = "TRANSPORT_FAILURE" // 502
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a country name absent from a table.
func NewNotFound(name string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("country not found: %s", name),
		Details: map[string]any{"name": name},
	}
}

// NewNoDataFound creates a 404 error for a language key that produced no records.
// Upstream non-success statuses land here too; callers cannot tell them apart.
func NewNoDataFound(language string) *AppError {
	return &AppError{
		Code:    ErrNoDataFound,
		Status:  404,
		Message: fmt.Sprintf("no countries found for language %q", language),
		Details: map[string]any{"language": language},
	}
}

// NewTransportFailure creates a 502 error for a request that never got an HTTP status.
func NewTransportFailure(err error) *AppError {
	msg := "upstream request failed"
	if err != nil {
		msg = fmt.Sprintf("upstream request failed: %v", err)
	}
	return &AppError{
		Code:    ErrTransportFailure,
		Status:  502,
		Message: msg,
		cause:   err,
	}
}

// NewCancelled creates a 499 error for a caller that stopped waiting on op.
func NewCancelled(op string) *AppError {
	return &AppError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message is generic; the original error is kept in Details for logging.
func NewInternal(err error) *AppError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
		cause:   err,
	}
}

// Is checks if err is, or wraps, an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As returns the AppError in err's chain, wrapping anything else as INTERNAL.
func As(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err)
}
