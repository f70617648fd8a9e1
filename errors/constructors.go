package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// New creates a PlatformError classified by its code.
func New(code ErrorCode, message string) PlatformError {
	return &platformError{
		code:           code,
		classification: classify(code),
		message:        message,
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) PlatformError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code and message to err. When err already is a
// PlatformError its classification is kept. Returns nil if err is nil.
//
//	if err := remote.Fetch(ctx); err != nil {
//	    return errors.Wrap(err, errors.CodeNetwork, "fetch failed")
//	}
func Wrap(err error, code ErrorCode, message string) PlatformError {
	if err == nil {
		return nil
	}
	return &platformError{
		code:           code,
		classification: inheritClassification(err, code),
		message:        message,
		cause:          err,
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) PlatformError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WrapWithContext wraps err and attaches a copy of fields in one step.
func WrapWithContext(err error, code ErrorCode, message string, fields map[string]any) PlatformError {
	if err == nil {
		return nil
	}
	return &platformError{
		code:           code,
		classification: inheritClassification(err, code),
		message:        message,
		context:        maps.Clone(fields),
		cause:          err,
	}
}

func inheritClassification(err error, code ErrorCode) ErrorClassification {
	var pe PlatformError
	if stderrors.As(err, &pe) {
		return pe.Classification()
	}
	return classify(code)
}
