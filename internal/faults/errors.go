// Package faults classifies connection and request errors, maps them to
// recovery strategies, and keeps a bounded history for diagnostics.
package faults

import (
	"fmt"
)

// AppError is a structured application error carrying a machine-readable
// code alongside the user-facing message.
type AppError struct {
	// Code is an error code string for programmatic handling
	Code string
	// Message is a user-friendly error message
	Message string
	// Context tags where the error originated (e.g. "websocket", "poll")
	Context string
	// Cause is the underlying error (for error wrapping)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the structured code; it satisfies the classifier's
// preference for structured codes over message-text heuristics.
func (e *AppError) ErrorCode() string {
	return e.Code
}

// Is allows errors.Is to match AppErrors by code.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code != "" && e.Code == t.Code
	}
	return false
}

// Structured error codes understood by the classifier.
const (
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeCORSRejected   = "CORS_REJECTED"
	CodeTimeout        = "TIMEOUT"
	CodeTransport      = "TRANSPORT_ERROR"
	CodeNetwork        = "NETWORK_ERROR"
	CodeServerError    = "INTERNAL_ERROR"
	CodeServiceUnavail = "SERVICE_UNAVAILABLE"
)

// New creates an AppError with a code and message.
func New(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// WithContext creates an AppError tagged with an originating context.
func WithContext(code, message, context string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Context: context, Cause: cause}
}
