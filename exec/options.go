package exec

import (
	"io"
	"time"
)

// Option configures a Command.
type Option func(*Command)

// WithDir sets the directory the command runs in.
func WithDir(dir string) Option {
	return func(c *Command) {
		c.dir = dir
	}
}

// WithEnv adds environment variables. Later values win.
func WithEnv(env map[string]string) Option {
	return func(c *Command) {
		if c.env == nil {
			c.env = make(map[string]string, len(env))
		}
		for k, v := range env {
			c.env[k] = v
		}
	}
}

// WithInheritEnv passes the parent process environment to the command.
func WithInheritEnv() Option {
	return func(c *Command) {
		c.inheritEnv = true
	}
}

// WithDisableColors sets the common variables that turn off colored output.
func WithDisableColors() Option {
	return func(c *Command) {
		c.disableColors = true
	}
}

// WithTimeout bounds each Run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Command) {
		c.timeout = d
	}
}

// WithPassthrough streams output to the configured writers while capturing it.
func WithPassthrough() Option {
	return func(c *Command) {
		c.passthrough = true
	}
}

// WithStdout sets the passthrough writer for standard output.
func WithStdout(w io.Writer) Option {
	return func(c *Command) {
		c.stdout = w
	}
}

// WithStderr sets the passthrough writer for standard error.
func WithStderr(w io.Writer) Option {
	return func(c *Command) {
		c.stderr = w
	}
}
