package errors

import (
	stderrors "errors"
	"maps"
)

// WithContext returns a copy of err with key set to value. A plain error is
// first converted to a PlatformError with CodeUnknown.
func WithContext(err error, key string, value any) PlatformError {
	if err == nil {
		return nil
	}
	return WithContextMap(err, map[string]any{key: value})
}

// WithContextMap returns a copy of err with fields merged over its existing
// context.
func WithContextMap(err error, fields map[string]any) PlatformError {
	if err == nil {
		return nil
	}
	pe := asPlatform(err)
	merged := pe.Context()
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return &platformError{
		code:           pe.Code(),
		classification: pe.Classification(),
		message:        pe.Message(),
		context:        merged,
		cause:          pe.Unwrap(),
	}
}

// WithClassification returns a copy of err with its classification replaced.
func WithClassification(err error, classification ErrorClassification) PlatformError {
	if err == nil {
		return nil
	}
	pe := asPlatform(err)
	return &platformError{
		code:           pe.Code(),
		classification: classification,
		message:        pe.Message(),
		context:        pe.Context(),
		cause:          pe.Unwrap(),
	}
}

func asPlatform(err error) PlatformError {
	var pe PlatformError
	if stderrors.As(err, &pe) {
		return pe
	}
	return &platformError{
		code:           CodeUnknown,
		classification: ClassificationPermanent,
		message:        err.Error(),
		cause:          err,
	}
}
