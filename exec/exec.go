package exec

import (
	"context"
	"io"
	"maps"
	"os"
	osexec "os/exec"
	"time"
)

// Executor runs a command line. Command and Wrapper implement it; tests
// substitute fakes.
type Executor interface {
	Run(ctx context.Context, args ...string) (*Result, error)
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	Combined string
	ExitCode int
}

// Command is the os/exec backed Executor. Build one with New; the zero
// value runs commands in the process working directory with the parent
// environment and no timeout.
type Command struct {
	dir           string
	env           map[string]string
	inheritEnv    bool
	disableColors bool
	passthrough   bool
	timeout       time.Duration
	stdout        io.Writer
	stderr        io.Writer
}

// New returns a Command configured by opts.
func New(opts ...Option) *Command {
	c := &Command{
		env:    map[string]string{},
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// With returns a copy of c with opts applied. c is not modified.
func (c *Command) With(opts ...Option) *Command {
	cp := *c
	cp.env = maps.Clone(c.env)
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Dir returns the directory commands run in. Empty means the process
// working directory.
func (c *Command) Dir() string {
	return c.dir
}

// Run executes args[0] with the remaining arguments. A non-zero exit returns
// both the Result and an *ExecError.
func (c *Command) Run(ctx context.Context, args ...string) (*Result, error) {
	if len(args) == 0 {
		return nil, &ExecError{ExitCode: -1, Err: osexec.ErrNotFound}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := osexec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = c.dir
	cmd.Env = c.environ()

	var stdout, stderr lockedBuffer
	combined := &lockedBuffer{}
	outs := []io.Writer{&stdout, combined}
	errs := []io.Writer{&stderr, combined}
	if c.passthrough {
		if c.stdout != nil {
			outs = append(outs, c.stdout)
		}
		if c.stderr != nil {
			errs = append(errs, c.stderr)
		}
	}
	cmd.Stdout = io.MultiWriter(outs...)
	cmd.Stderr = io.MultiWriter(errs...)

	err := cmd.Run()

	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Combined: combined.String(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return res, &ExecError{
			Command:  args,
			Dir:      c.dir,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			Err:      err,
		}
	}
	return res, nil
}

func (c *Command) environ() []string {
	var env []string
	if c.inheritEnv {
		env = os.Environ()
	}
	// The zero Command has a nil env map.
	vars := make(map[string]string, len(c.env)+5)
	maps.Copy(vars, c.env)
	if c.disableColors {
		vars["NO_COLOR"] = "1"
		vars["TERM"] = "dumb"
		vars["CLICOLOR"] = "0"
		vars["CLICOLOR_FORCE"] = "0"
		vars["FORCE_COLOR"] = "0"
	}
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	// nil leaves os/exec to inherit the parent environment.
	return env
}
