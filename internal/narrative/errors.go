package narrative

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable failure taxonomy surfaced to API
// callers as the error_kind field of a failure response.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NotFoundError"
	KindWorldNotFound     ErrorKind = "WorldNotFoundError"
	KindDuplicateName     ErrorKind = "DuplicateNameError"
	KindStateConflict     ErrorKind = "StateConflictError"
	KindGeneration        ErrorKind = "GenerationError"
	KindMemoryUnavailable ErrorKind = "MemoryUnavailableError"
	KindValidation        ErrorKind = "ValidationError"
	KindInternal          ErrorKind = "InternalError"
)

// Error is a domain failure with a kind the HTTP layer can map to a
// status code. Wrapped causes stay reachable through errors.Unwrap.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match two domain errors by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// NewError builds a domain error without a cause.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a domain error around an underlying cause.
func WrapError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the error kind, defaulting to InternalError for
// failures outside the domain taxonomy.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Sentinels for errors.Is checks in engine and handler code.
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrWorldNotFound     = &Error{Kind: KindWorldNotFound, Message: "world not found"}
	ErrDuplicateName     = &Error{Kind: KindDuplicateName, Message: "name already registered"}
	ErrStateConflict     = &Error{Kind: KindStateConflict, Message: "operation invalid for current stage"}
	ErrGeneration        = &Error{Kind: KindGeneration, Message: "generation failed"}
	ErrMemoryUnavailable = &Error{Kind: KindMemoryUnavailable, Message: "lore index unreachable"}
)
