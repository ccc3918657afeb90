package pocketbase

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyToken is returned when an auth response carries no token.
var ErrEmptyToken = errors.New("pocketbase: auth response has no token")

// Error is a failed PocketBase call. Status is the HTTP status (0 for
// transport failures), Message the server's message when it sent one.
type Error struct {
	// Op is the client operation that failed, e.g. "list posts".
	Op string

	// Status is the HTTP status code returned by PocketBase.
	Status int

	// Message is the error message from the response body.
	Message string

	// Data holds per-field validation errors from the response body.
	Data map[string]any

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: [%d] %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of the failed call.
func (e *Error) StatusCode() int {
	return e.Status
}

// errorBody is the JSON error envelope PocketBase sends.
type errorBody struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// WrapError wraps a transport or decoding error with operation context.
func WrapError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

// IsRetryable reports whether err is transient: a transport failure, a 5xx
// or a 429.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Status == 0 {
		return e.Err != nil
	}
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// IsAuthError reports whether err is a 401 or 403 from PocketBase.
func IsAuthError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is a 404 from PocketBase.
func IsNotFound(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Status == http.StatusNotFound
	}
	return false
}
