// Package errors provides the structured error type shared by every gitsource
// package.
//
// Errors carry a code, a retry classification and optional context fields.
// They remain compatible with the standard library: errors.Is, errors.As and
// errors.Unwrap all see through a PlatformError to its cause.
//
// # Creating errors
//
//	err := errors.New(errors.CodeUnrecognizedURL, "not a stash url")
//	err := errors.Newf(errors.CodeInvalidInput, "cache key %q must not be empty", key)
//
// # Wrapping errors
//
// Wrap attaches a code and a message to an existing error. Wrapping a nil
// error returns nil, so the usual pattern needs no extra branch:
//
//	if err := repo.Fetch(ctx, opts); err != nil {
//	    return errors.Wrap(err, errors.CodeCacheFailed, "failed to update cache entry")
//	}
//
// WrapWithContext does the same and attaches fields in one step:
//
//	return errors.WrapWithContext(err, errors.CodeCacheFailed, "failed to clone repository",
//	    map[string]any{"path": path, "url": git.RedactURL(url)})
//
// When the wrapped error is itself a PlatformError its classification is
// kept, so a retryable failure deep in the git layer stays retryable after
// the cache layer wraps it with its own code.
//
// # Context metadata
//
// WithContext and WithContextMap return a copy of the error with extra
// fields. The original is never modified, which makes it safe to decorate a
// shared sentinel:
//
//	err = errors.WithContext(err, "key", key)
//	err = errors.WithContextMap(err, map[string]any{"root": root, "attempt": n})
//
// Never put credentials in context. URLs are passed through git.RedactURL
// first.
//
// # Codes
//
// The codes used across the module fall into a few groups:
//
//   - Lookup: CodeNotFound, CodeAlreadyExists, CodeConflict
//   - Access: CodeUnauthorized, CodeForbidden
//   - Validation: CodeInvalidInput, CodeInvalidConfig, CodeUnrecognizedURL
//   - Infrastructure: CodeNetwork, CodeTimeout, CodeRateLimit
//   - Work: CodeExecutionFailed, CodeCacheFailed, CodeLockTimeout
//   - Fallback: CodeInternal, CodeUnknown
//
// # Classification
//
// Every code has a default classification. Network failures, timeouts, rate
// limits, lock timeouts and cache failures are retryable. Everything else is
// permanent. A
// build scheduler can use this to decide whether to requeue:
//
//	if errors.IsRetryable(err) {
//	    // another build holds the cache entry or the network blipped
//	    return requeue(build)
//	}
//
// WithClassification overrides the default when a caller knows better.
//
// # Inspecting errors
//
// GetCode and GetClassification walk the chain and return the outermost
// PlatformError's values, or CodeUnknown and permanent for plain errors:
//
//	switch errors.GetCode(err) {
//	case errors.CodeUnrecognizedURL:
//	    // reject the project
//	case errors.CodeLockTimeout:
//	    // retry later
//	}
//
// Is, As and Join are re-exported from the standard library so callers need
// only one import.
package errors
