package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID       = "invalid"       // Invalid input or validation failure
	ENOTFOUND      = "not_found"     // Resource not found
	ECONFLICT      = "conflict"      // Resource conflict (e.g., duplicate)
	ETOOLARGE      = "too_large"     // Request entity too large
	ERATELIMIT     = "rate_limit"    // Rate limit exceeded
	EINTERNAL      = "internal"      // Internal server error
	EMISCONFIGURED = "misconfigured" // Required server configuration is missing
	EUNAVAILABLE   = "unavailable"   // Upstream dependency unavailable
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "order.checkout")
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code, op, message string) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		// For internal and configuration errors, return generic message
		if e.Code == EINTERNAL || e.Code == EMISCONFIGURED {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Conflict creates a conflict error.
func Conflict(op, message string) *Error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Misconfigured creates an error for missing server-side configuration.
// The message is safe to show; details belong in Err.
func Misconfigured(op, message string) *Error {
	return &Error{
		Code:    EMISCONFIGURED,
		Op:      op,
		Message: message,
	}
}

// TooLarge creates a request-size error.
func TooLarge(op, message string) *Error {
	return &Error{
		Code:    ETOOLARGE,
		Op:      op,
		Message: message,
	}
}

// Unavailable wraps a failure of an upstream dependency (AI provider, storage).
func Unavailable(err error, op, message string) *Error {
	return &Error{
		Code:    EUNAVAILABLE,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// RateLimit creates a rate limit error.
func RateLimit(op string) *Error {
	return &Error{
		Code:    ERATELIMIT,
		Op:      op,
		Message: "Too many requests. Please try again later.",
	}
}
