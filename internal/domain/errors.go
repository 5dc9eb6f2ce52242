package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable category of a failure.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidInput      ErrorKind = "INVALID_INPUT"
	KindInvalidState      ErrorKind = "INVALID_STATE"
	KindConflict          ErrorKind = "CONFLICT"
	KindDependencyFailure ErrorKind = "DEPENDENCY_FAILURE"
)

// Error carries an ErrorKind plus a human-readable reason. Internal
// identifiers and driver errors never leak through Message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NotFound builds a NOT_FOUND error.
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput builds an INVALID_INPUT error.
func InvalidInput(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// InvalidState builds an INVALID_STATE error.
func InvalidState(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a CONFLICT error. Conflicts are safe to retry: no
// side effects have been applied when one is returned.
func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// DependencyFailure builds a DEPENDENCY_FAILURE error.
func DependencyFailure(format string, args ...interface{}) error {
	return &Error{Kind: KindDependencyFailure, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, unwrapping as needed. The
// second return is false for errors outside the taxonomy.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
