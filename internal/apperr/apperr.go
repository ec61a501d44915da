// Package apperr defines the typed outcomes shared by every component.
// Components return these instead of raw gorm or jwt errors; only the
// HTTP handlers translate them to status codes.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an outcome for the HTTP boundary.
type Kind int

const (
	// Unauthenticated: missing, invalid, or expired credential.
	Unauthenticated Kind = iota
	// Forbidden: authenticated but the policy denies the operation.
	Forbidden
	// NotFound: the resource is absent, or hidden from this caller.
	NotFound
	// Validation: malformed or incomplete input.
	Validation
	// QuotaExceeded: the tenant's subscription plan denies the write.
	QuotaExceeded
	// Transient: the store failed; safe for the caller to retry, never
	// retried by the service itself.
	Transient
)

// Error carries a kind and a user-facing message. Err, when set, is the
// underlying cause and is logged but never serialized to the client.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Status maps an error to an HTTP status code. Unknown errors are treated
// as internal failures.
func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden, QuotaExceeded:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message for an error, falling back to a
// generic one for untyped errors so internals never leak to clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
