package domain

import (
	"errors"
	"net/http"
)

// DefaultErrorMessage is used when an Error carries no message of its own.
const DefaultErrorMessage = "Something went wrong"

// ErrNotFound is returned by storage backends when no record matches an id.
// Every backend maps its driver-specific sentinel to this value.
var ErrNotFound = errors.New("record not found")

// Error is an application failure carrying an HTTP status and a message that
// is safe to show to clients. Values are immutable once constructed.
type Error struct {
	status  int
	message string
}

// NewError builds an Error. A non-positive status becomes 500 and an empty
// message becomes DefaultErrorMessage.
func NewError(message string, status int) *Error {
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	if message == "" {
		message = DefaultErrorMessage
	}
	return &Error{status: status, message: message}
}

// Status returns the HTTP status code. A zero Error reports 500.
func (e *Error) Status() int {
	if e.status <= 0 {
		return http.StatusInternalServerError
	}
	return e.status
}

// Message returns the client-facing message. A zero Error reports
// DefaultErrorMessage.
func (e *Error) Message() string {
	if e.message == "" {
		return DefaultErrorMessage
	}
	return e.message
}

func (e *Error) Error() string { return e.Message() }
