// Package config loads gitsource configuration.
//
// Configuration is read from an optional CUE file, unified with the embedded
// schema (which supplies every default and rejects unknown fields), and then
// overridden from GITSOURCE_* environment variables. Durations use
// time.ParseDuration syntax.
package config

import (
	"context"
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sethvargo/go-envconfig"

	"github.com/jmgilman/go/gitsource/errors"
)

//go:embed schema.cue
var schemaSource []byte

// Config is the full gitsource configuration.
type Config struct {
	WorkDir  string   `json:"workdir" env:"GITSOURCE_WORKDIR,overwrite"`
	Log      Log      `json:"log"`
	GitHub   GitHub   `json:"github"`
	Git      Git      `json:"git"`
	Timeouts Timeouts `json:"timeouts"`
	Prune    Prune    `json:"prune"`
}

// Log configures the process logger.
type Log struct {
	Level  string `json:"level" env:"GITSOURCE_LOG_LEVEL,overwrite"`
	Format string `json:"format" env:"GITSOURCE_LOG_FORMAT,overwrite"`
}

// GitHub configures the refs API client.
type GitHub struct {
	Token string `json:"token" env:"GITSOURCE_GITHUB_TOKEN,overwrite"`
}

// Git holds transport credentials.
type Git struct {
	Username string `json:"username" env:"GITSOURCE_GIT_USERNAME,overwrite"`
	Password string `json:"password" env:"GITSOURCE_GIT_PASSWORD,overwrite"`
	SSHKey   string `json:"ssh_key" env:"GITSOURCE_SSH_KEY,overwrite"`
}

// Timeouts bound the blocking operations.
type Timeouts struct {
	Clone   string `json:"clone" env:"GITSOURCE_CLONE_TIMEOUT,overwrite"`
	Fetch   string `json:"fetch" env:"GITSOURCE_FETCH_TIMEOUT,overwrite"`
	Resolve string `json:"resolve" env:"GITSOURCE_RESOLVE_TIMEOUT,overwrite"`
	Lock    string `json:"lock" env:"GITSOURCE_LOCK_TIMEOUT,overwrite"`
}

// Prune configures cache pruning.
type Prune struct {
	MaxAge string `json:"max_age" env:"GITSOURCE_PRUNE_MAX_AGE,overwrite"`
}

type loadOptions struct {
	fs       billy.Filesystem
	lookuper envconfig.Lookuper
}

// Option configures Load.
type Option func(*loadOptions)

// WithFilesystem reads the config file from fs instead of the OS.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *loadOptions) {
		o.fs = fs
	}
}

// WithLookuper reads overrides from l instead of the process environment.
func WithLookuper(l envconfig.Lookuper) Option {
	return func(o *loadOptions) {
		o.lookuper = l
	}
}

// Load reads the CUE file at path, fills in schema defaults and applies
// environment overrides. An empty path skips the file.
func Load(ctx context.Context, path string, opts ...Option) (*Config, error) {
	o := &loadOptions{lookuper: envconfig.OsLookuper()}
	for _, opt := range opts {
		opt(o)
	}

	var source []byte
	if path != "" {
		if o.fs == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig, "invalid config path",
					map[string]any{"path": path})
			}
			o.fs, path = osfs.New("/"), abs
		}
		data, err := util.ReadFile(o.fs, path)
		if err != nil {
			code := errors.CodeInvalidConfig
			if os.IsNotExist(err) {
				code = errors.CodeNotFound
			}
			return nil, errors.WrapWithContext(err, code, "failed to read config file",
				map[string]any{"path": path})
		}
		source = data
	}

	cfg, err := decode(ctx, path, source)
	if err != nil {
		return nil, err
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: o.lookuper,
	}); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to apply environment overrides")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the schema defaults.
func Default() *Config {
	cfg, err := decode(context.Background(), "", nil)
	if err != nil {
		panic("embedded config schema is invalid: " + err.Error())
	}
	return cfg
}

func decode(ctx context.Context, filename string, source []byte) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "context cancelled")
	}

	cctx := cuecontext.New()
	schema := cctx.CompileBytes(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to compile config schema")
	}

	value := schema
	if len(source) > 0 {
		data := cctx.CompileBytes(source, cue.Filename(filename))
		if err := data.Err(); err != nil {
			return nil, cueError(err, "failed to compile config file", filename)
		}
		value = schema.Unify(data)
	}

	if err := value.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, cueError(err, "config does not match schema", filename)
	}

	cfg := &Config{}
	if err := value.Decode(cfg); err != nil {
		return nil, cueError(err, "failed to decode config", filename)
	}
	return cfg, nil
}

func cueError(err error, message, filename string) error {
	return errors.WrapWithContext(err, errors.CodeInvalidConfig, message, map[string]any{
		"path":    filename,
		"details": cueerrors.Details(err, nil),
	})
}

// validate checks what the environment may have overridden.
func (c *Config) validate() error {
	if c.WorkDir == "" {
		return invalid("workdir", "must not be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return invalid("log.level", err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", "must be text or json")
	}
	// A zero timeout would leave the operation unbounded.
	for field, v := range map[string]string{
		"timeouts.clone":   c.Timeouts.Clone,
		"timeouts.fetch":   c.Timeouts.Fetch,
		"timeouts.resolve": c.Timeouts.Resolve,
		"timeouts.lock":    c.Timeouts.Lock,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return invalid(field, err.Error())
		}
		if d <= 0 {
			return invalid(field, "must be positive")
		}
	}
	d, err := time.ParseDuration(c.Prune.MaxAge)
	if err != nil {
		return invalid("prune.max_age", err.Error())
	}
	if d < 0 {
		return invalid("prune.max_age", "must not be negative")
	}
	return nil
}

func invalid(field, reason string) error {
	return errors.WithContext(
		errors.Newf(errors.CodeInvalidConfig, "invalid %s: %s", field, reason),
		"field", field)
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(c.Log.Level))
	return lvl, err
}

// CloneTimeout returns Timeouts.Clone.
func (c *Config) CloneTimeout() time.Duration { return duration(c.Timeouts.Clone) }

// FetchTimeout returns Timeouts.Fetch.
func (c *Config) FetchTimeout() time.Duration { return duration(c.Timeouts.Fetch) }

// ResolveTimeout returns Timeouts.Resolve.
func (c *Config) ResolveTimeout() time.Duration { return duration(c.Timeouts.Resolve) }

// LockTimeout returns Timeouts.Lock.
func (c *Config) LockTimeout() time.Duration { return duration(c.Timeouts.Lock) }

// PruneMaxAge returns Prune.MaxAge.
func (c *Config) PruneMaxAge() time.Duration { return duration(c.Prune.MaxAge) }

// duration parses a value validate has already accepted.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
