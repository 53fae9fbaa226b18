// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors and the dispatch layer maps them
// to corrective prompts or admin-facing no-ops.
package apperr

import (
	"errors"
	"fmt"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a session or order was missing when expected.
	KindNotFound
	// KindValidation indicates malformed, oversized or disallowed input.
	KindValidation
	// KindInvalidTransition indicates an order state machine violation.
	KindInvalidTransition
	// KindUnresolvedIdentity indicates the resolver exhausted all tiers.
	KindUnresolvedIdentity
	// KindTransport indicates an outbound send failed.
	KindTransport
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Error is a domain error with a typed Kind.
type Error struct {
	Kind    Kind
	Message string
	Op      string // Operation that failed (optional)
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// InvalidTransition creates an order state machine violation error.
func InvalidTransition(message string) *Error {
	return New(KindInvalidTransition, message)
}

// UnresolvedIdentity creates a resolver exhaustion error.
func UnresolvedIdentity(message string) *Error {
	return New(KindUnresolvedIdentity, message)
}

// Transport creates an outbound delivery error.
func Transport(message string, err error) *Error {
	return Wrap(KindTransport, message, err)
}

// Internal creates an internal error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// GetKind extracts the error kind from an error.
// Returns KindUnknown if the error is not an *Error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
