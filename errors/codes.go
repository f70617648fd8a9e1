package errors

// ErrorCode identifies a failure category. Codes are strings so they read well
// in logs.
type ErrorCode string

const (
	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeConflict indicates the resource is in a state that prevents the operation.
	CodeConflict ErrorCode = "CONFLICT"

	// CodeUnauthorized indicates missing or invalid credentials.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeForbidden indicates the credentials lack permission.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// CodeInvalidInput indicates malformed caller input.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration document failed to load or validate.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeRateLimit indicates a remote rate limit was hit.
	CodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"

	// CodeExecutionFailed indicates a subprocess or git operation failed.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// CodeUnrecognizedURL indicates a repository URL does not match any shape
	// the selected provider accepts.
	CodeUnrecognizedURL ErrorCode = "UNRECOGNIZED_URL"

	// CodeCacheFailed indicates the local repository cache could not be
	// prepared.
	CodeCacheFailed ErrorCode = "CACHE_FAILED"

	// CodeLockTimeout indicates a cache entry lock could not be acquired in time.
	CodeLockTimeout ErrorCode = "LOCK_TIMEOUT"

	// CodeInternal indicates an unexpected internal failure.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown is used for errors that carry no code.
	CodeUnknown ErrorCode = "UNKNOWN"
)
