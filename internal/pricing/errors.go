package pricing

import (
	"errors"
	"fmt"
)

// Code classifies a pricing pipeline failure.
type Code string

const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeDataUnavailable Code = "DATA_UNAVAILABLE"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeTimeout         Code = "TIMEOUT"
	CodeNetworkError    Code = "NETWORK_ERROR"
	CodeInvalidResponse Code = "INVALID_RESPONSE"
	CodeCacheError      Code = "CACHE_ERROR"
)

// Error is the boundary error type for the pricing pipeline. Retryable
// tells the caller whether a repeat attempt is worthwhile.
type Error struct {
	Message   string
	Code      Code
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a non-retryable pricing error.
func NewError(code Code, message string) *Error {
	return &Error{Message: message, Code: code}
}

// NewErrorRetryable builds a retryable pricing error.
func NewErrorRetryable(code Code, message string) *Error {
	return &Error{Message: message, Code: code, Retryable: true}
}

// WrapError attaches a pricing code to an underlying error.
func WrapError(code Code, message string, retryable bool, cause error) *Error {
	return &Error{Message: message, Code: code, Retryable: retryable, Cause: cause}
}

// AsError returns err unchanged when it already is a pricing error,
// otherwise wraps it under the given code.
func AsError(err error, code Code, message string, retryable bool) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	return WrapError(code, message, retryable, err)
}

// CodeOf extracts the pricing code from an error chain, or empty string.
func CodeOf(err error) Code {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}
