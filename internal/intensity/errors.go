package intensity

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to callers of Service.Execute.
type ErrorKind string

const (
	AuthorizationError   ErrorKind = "AuthorizationError"
	InputValidationError ErrorKind = "InputValidationError"
	APIRequestError      ErrorKind = "APIRequestError"
)

// Error is the error type returned for every failure the service classifies.
// Message is the full human-readable text; consumers match on it.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError formats message as "Source(scope): message." and wraps cause.
// An empty scope is omitted together with its parentheses.
func NewError(kind ErrorKind, source, scope, message string, cause error) *Error {
	prefix := source
	if scope != "" {
		prefix = fmt.Sprintf("%s(%s)", source, scope)
	}
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf("%s: %s.", prefix, message),
		Err:     cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
