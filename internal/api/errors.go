package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Common order store errors
var (
	// ErrNotFound is returned when the order or task does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrRejected is returned when the server refuses the request as invalid
	// (unsupported file type, validation failure, missing file).
	ErrRejected = errors.New("request rejected by server")

	// ErrServer is returned for 5xx responses.
	ErrServer = errors.New("order service error")

	// ErrUnavailable is returned when the service cannot be reached at all.
	ErrUnavailable = errors.New("order service unavailable")

	// ErrUnexpectedResponse is returned when a 2xx body cannot be decoded.
	ErrUnexpectedResponse = errors.New("unexpected response from order service")
)

// Error wraps a failed call with the operation and the server's message.
type Error struct {
	// Op is the client method that failed (e.g. "GetOrder", "Upload").
	Op string

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int

	// Message is the server-provided "error" field, if any.
	Message string

	// Err is the sentinel or transport error underneath.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("api: %s failed (%d): %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("api: %s failed (%d): %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("api: %s failed: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text safe to show to a person: the server's own message
// when it sent one, otherwise a summary of the failure class.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch {
	case errors.Is(e.Err, ErrNotFound):
		return "Not found"
	case errors.Is(e.Err, ErrUnavailable):
		return "The order service is not reachable"
	case errors.Is(e.Err, ErrRejected):
		return "The request was rejected"
	default:
		return "The order service returned an error"
	}
}

// UserMessage extracts a human-readable summary from any error returned by
// this package, falling back to fallback for everything else.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return fallback
}

func statusError(op string, status int, message string) *Error {
	var sentinel error
	switch {
	case status == http.StatusNotFound:
		sentinel = ErrNotFound
	case status >= 400 && status < 500:
		sentinel = ErrRejected
	default:
		sentinel = ErrServer
	}
	return &Error{Op: op, StatusCode: status, Message: message, Err: sentinel}
}

func transportError(op string, err error) *Error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
}
