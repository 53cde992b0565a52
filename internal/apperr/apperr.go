package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain failure with a stable code that survives across the API
// boundary. Message is safe to show to callers; Err carries the underlying
// cause for logs only.
type Error struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithCause returns a copy of e carrying cause for logging.
func (e *Error) WithCause(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Status: e.Status, Err: cause}
}

// Is matches errors by stable code so sentinel values and WithCause copies
// compare equal under errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

// From extracts the *Error wrapped anywhere in err, or nil.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// StatusOf returns the HTTP status for err, defaulting to 500 for errors
// outside the domain taxonomy.
func StatusOf(err error) int {
	if e := From(err); e != nil {
		return e.Status
	}
	return http.StatusInternalServerError
}
