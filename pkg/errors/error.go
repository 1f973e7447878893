// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - Configuration errors (100-199): invalid capital, date ranges, missing
//     strategy handles, unknown target metrics
//   - Data errors (200-299): empty or insufficient bar series
//   - Execution errors (400-499): strategy evaluation failures
//   - Operation errors (600-699): cancellation and result-store failures
//
// Usage:
//
//	err := errors.New(errors.ErrCodeNoData, "no bars in the configured range")
//	err := errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q is not registered", name)
//	err := errors.Wrap(errors.ErrCodeStrategyEvaluation, "strategy evaluation failed", cause)
//
//	if errors.HasCode(err, errors.ErrCodeNoData) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is a structured error carrying an error code, a message and an
// optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// GetCode extracts the ErrorCode from an error chain.
// Returns ErrCodeUnknown if no *Error is found in the chain.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks whether an error chain carries a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetCategory returns the failure class of an error chain.
func GetCategory(err error) Category {
	return CategoryOf(GetCode(err))
}
