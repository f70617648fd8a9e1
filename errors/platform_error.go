package errors

import (
	"fmt"
	"maps"
)

// PlatformError is an error with a code, a retry classification and context
// metadata.
type PlatformError interface {
	error

	// Code returns the failure category.
	Code() ErrorCode

	// Classification reports whether a retry may succeed.
	Classification() ErrorClassification

	// Message returns the message without the cause.
	Message() string

	// Context returns a copy of the attached fields, or nil.
	Context() map[string]any

	// Unwrap returns the cause, or nil.
	Unwrap() error
}

type platformError struct {
	code           ErrorCode
	classification ErrorClassification
	message        string
	context        map[string]any
	cause          error
}

func (e *platformError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Code returns the code the error was created or wrapped with. Wrapping a
// PlatformError with a new code replaces it; the inner code stays reachable
// through errors.As on the cause.
func (e *platformError) Code() ErrorCode {
	return e.code
}

// Classification returns the retry classification. New derives it from the
// code, Wrap keeps the one of a wrapped PlatformError, and
// WithClassification overrides it.
func (e *platformError) Classification() ErrorClassification {
	return e.classification
}

// Message returns the human readable message alone. Error appends the code
// and the cause.
func (e *platformError) Message() string {
	return e.message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *platformError) Unwrap() error {
	return e.cause
}

// Context returns a copy so callers cannot mutate a shared error.
func (e *platformError) Context() map[string]any {
	if e.context == nil {
		return nil
	}
	return maps.Clone(e.context)
}
