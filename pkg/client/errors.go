package client

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of backend failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport failures (timeout, DNS, refused).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassProtocol represents malformed responses and {ok:false} on reads.
	ErrorClassProtocol ErrorClass = "protocol"

	// ErrorClassApplication represents business-rule rejections of a mutation.
	ErrorClassApplication ErrorClass = "application"

	// ErrorClassUnauthorized represents 401/403 responses.
	ErrorClassUnauthorized ErrorClass = "unauthorized"
)

// Common errors returned by the client.
var (
	// ErrNoToken is returned when the token source has no bearer token.
	ErrNoToken = errors.New("no bearer token available")
)

// APIError is the typed failure of a backend call.
type APIError struct {
	Class      ErrorClass
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("backend %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the user may simply try the same call again.
func (e *APIError) Retryable() bool {
	return isRetryableClass(e.Class)
}

// NewProtocolError builds a protocol-class error for a malformed response.
func NewProtocolError(message string, err error) *APIError {
	return &APIError{
		Class:   ErrorClassProtocol,
		Message: message,
		Err:     err,
	}
}

// ClassOf returns the class of err, or "" when err is not an APIError.
func ClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ""
}

// IsRetryable reports whether err is a retry-able failure.
func IsRetryable(err error) bool {
	return isRetryableClass(ClassOf(err))
}

func isRetryableClass(class ErrorClass) bool {
	switch class {
	case ErrorClassNetwork, ErrorClassServer:
		return true
	default:
		// protocol, application and auth failures repeat on retry
		return false
	}
}
