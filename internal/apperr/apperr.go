// Package apperr implements a small set of typed failure kinds that every
// layer above the repositories maps onto, so the HTTP layer can translate
// them to status codes in one place instead of each handler hand-rolling
// its own switch.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one entry in the error taxonomy.
type Kind string

const (
	ValidationFailed  Kind = "VALIDATION_FAILED"
	NotFound          Kind = "NOT_FOUND"
	InvalidTransition Kind = "INVALID_TRANSITION"
	Conflict          Kind = "CONFLICT"
	Unauthorized      Kind = "UNAUTHORIZED"
	RateLimited       Kind = "RATE_LIMITED"
	DependencyFailure Kind = "DEPENDENCY_FAILURE"
	Unprocessable     Kind = "UNPROCESSABLE"
)

// Error is a typed application error carrying a taxonomy Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error from a message.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags an existing error with a Kind, preserving it for errors.Is/As.
func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, if any of its wrapped causes carry one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
