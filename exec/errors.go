package exec

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jmgilman/go/gitsource/errors"
)

// ExecError describes a command that could not start or exited non-zero.
//
// ExitCode is -1 when the process never started or was killed before it
// exited. Stdout and Stderr hold whatever was captured up to that point.
type ExecError struct {
	Command  []string
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Error names the command line and the exit code. Output is left out; it is
// available on the struct and in the context of AsPlatformError.
func (e *ExecError) Error() string {
	cmd := strings.Join(e.Command, " ")
	if e.Err != nil {
		return fmt.Sprintf("command %q failed with exit code %d: %v", cmd, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("command %q failed with exit code %d", cmd, e.ExitCode)
}

// Unwrap returns the error from os/exec or the context error that ended the
// command.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// TimedOut reports whether the command was stopped by its deadline.
func (e *ExecError) TimedOut() bool {
	return stderrors.Is(e.Err, context.DeadlineExceeded)
}

// AsPlatformError converts err into a platform error. Deadline overruns map
// to CodeTimeout and everything else to CodeExecutionFailed. Stderr is kept
// in the error context.
func AsPlatformError(err error, message string) errors.PlatformError {
	if err == nil {
		return nil
	}
	var execErr *ExecError
	if !stderrors.As(err, &execErr) {
		return errors.Wrap(err, errors.CodeExecutionFailed, message)
	}
	code := errors.CodeExecutionFailed
	if execErr.TimedOut() {
		code = errors.CodeTimeout
	}
	return errors.WrapWithContext(err, code, message, map[string]any{
		"command":   strings.Join(execErr.Command, " "),
		"dir":       execErr.Dir,
		"exit_code": execErr.ExitCode,
		"stderr":    strings.TrimSpace(execErr.Stderr),
	})
}
