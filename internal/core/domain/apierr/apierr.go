package apierr

import (
	"context"
	"errors"
	"fmt"
)

// TransportError is returned when no response was received from the API
// (connection refused, DNS failure, timeout).
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport error: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is returned when the API answered with a non-2xx status.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	// Message is the server supplied message, if the body carried one.
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}

// ValidationError is a client side check that blocks a request from being issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Retryable reports whether a failed read is worth another attempt.
// Client side validation failures and cancellations are final.
func Retryable(err error) bool {
	if err == nil || IsValidation(err) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// UserMessage returns the text a UI should show for err: the server message
// when there is one, otherwise the error string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var he *HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}
