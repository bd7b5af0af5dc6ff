// Package errors provides structured error types for reefrank.
//
// Two codes carry the taxonomy the site-selection core relies on:
//   - INVALID_DATA: malformed or out-of-range input (a non-square connectivity
//     matrix, probabilities outside [0,1], mismatched vector lengths, an
//     allocation exceeding available space). These point at upstream data
//     problems and are never corrected silently.
//   - INVALID_CONFIG: invalid scenario configuration (negative weights, risk
//     tolerance outside [0,1], a non-positive site count). Raised before any
//     per-replicate work begins.
//
// The remaining codes serve the CLI, the HTTP API and the stores.
//
// # Usage
//
//	err := errors.Data("connectivity matrix is %dx%d, want square", r, c)
//	if errors.IsData(err) {
//	    // reject the input
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNotFound, origErr, "run %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Core taxonomy
	ErrCodeInvalidData   Code = "INVALID_DATA"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Input errors outside the core (request bodies, file formats)
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeRunNotFound  Code = "RUN_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Data creates an INVALID_DATA error.
func Data(format string, args ...any) *Error {
	return New(ErrCodeInvalidData, format, args...)
}

// Config creates an INVALID_CONFIG error.
func Config(format string, args ...any) *Error {
	return New(ErrCodeInvalidConfig, format, args...)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsData reports whether err is an INVALID_DATA error.
func IsData(err error) bool { return Is(err, ErrCodeInvalidData) }

// IsConfig reports whether err is an INVALID_CONFIG error.
func IsConfig(err error) bool { return Is(err, ErrCodeInvalidConfig) }

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
