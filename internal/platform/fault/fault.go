// Package fault defines the error taxonomy shared by all domain services.
// Services return *fault.Error values; HTTP handlers map the Kind to a
// status code so that no domain package imports net/http directly.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// Internal is the fallback for unclassified errors.
	Internal Kind = iota
	// Unauthorized means no valid session was presented.
	Unauthorized
	// Forbidden means the caller is authenticated but lacks the role or
	// ownership required by the operation.
	Forbidden
	// NotFound means the referenced entity does not exist.
	NotFound
	// InvalidInput means the payload is malformed or missing fields.
	InvalidInput
	// Conflict means a uniqueness invariant would be violated.
	Conflict
	// InvalidTransition means a state-machine rule rejected the change.
	InvalidTransition
	// ConflictingTransition means the caller lost a concurrent race and
	// the state has moved underneath it.
	ConflictingTransition
	// Unavailable means an external provider failed; the request itself
	// was well-formed.
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case InvalidInput:
		return "invalid_input"
	case Conflict:
		return "conflict"
	case InvalidTransition:
		return "invalid_transition"
	case ConflictingTransition:
		return "conflicting_transition"
	case Unavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error carries a Kind, a user-visible message, and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a fault error with the given kind and message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Errorf formats a message for the given kind.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, or Internal if err is not a fault error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Message returns the user-visible message of err. Unclassified errors get
// a generic message so internal details never leak to clients.
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Msg
	}
	return "internal server error"
}

// HTTPStatus maps an error to the HTTP status code handlers should return.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case InvalidInput:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case InvalidTransition:
		return http.StatusUnprocessableEntity
	case ConflictingTransition:
		return http.StatusConflict
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
