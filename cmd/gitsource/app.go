package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmgilman/go/gitsource/config"
	platformerrors "github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/exec"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/git/cache"
	"github.com/jmgilman/go/gitsource/metrics"
	"github.com/jmgilman/go/gitsource/provider"
	"github.com/jmgilman/go/gitsource/refs"
	"github.com/jmgilman/go/gitsource/repository"
	"github.com/jmgilman/go/gitsource/workspace"
)

// app holds everything the commands share.
type app struct {
	cfg       *config.Config
	log       *clog.Logger
	providers *provider.Registry
	registry  *prometheus.Registry
	metrics   *metrics.Recorder
	textfile  string
}

func newApp(ctx context.Context, cli *CLI) (*app, error) {
	cfg, err := config.Load(ctx, cli.Config)
	if err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	return &app{
		cfg:       cfg,
		log:       log,
		providers: provider.Default(),
		registry:  reg,
		metrics:   metrics.New(reg),
		textfile:  cli.MetricsTextfile,
	}, nil
}

func newLogger(cfg *config.Config) (*clog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, platformerrors.WithContext(
			platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "invalid log level"),
			"level", cfg.Log.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return clog.New(handler), nil
}

// repository parses rawURL for the named provider.
func (a *app) repository(tag, rawURL string) (*repository.Repository, error) {
	return repository.New(a.providers, provider.Tag(tag), rawURL)
}

// resolver routes GitHub repositories to the refs API and everything else
// to ls-remote.
func (a *app) resolver() refs.Resolver {
	api := refs.NewAPIResolver(
		refs.WithToken(a.cfg.GitHub.Token),
		refs.WithTimeout(a.cfg.ResolveTimeout()),
		refs.WithMetrics(a.metrics),
	)
	remote := refs.NewRemoteResolver(
		refs.WithRemoteAuth(func(r refs.Repository) git.Auth { return a.auth(r.FetchURL(), providerOf(r)) }),
		refs.WithRemoteTimeout(a.cfg.ResolveTimeout()),
		refs.WithRemoteMetrics(a.metrics),
	)
	return refs.NewRouter(remote).Route(string(provider.GitHub), api)
}

func (a *app) cache() (*cache.Registry, error) {
	return cache.NewRegistry(a.cfg.WorkDir,
		cache.WithCloneTimeout(a.cfg.CloneTimeout()),
		cache.WithFetchTimeout(a.cfg.FetchTimeout()),
		cache.WithLockTimeout(a.cfg.LockTimeout()),
		cache.WithMetrics(a.metrics),
		cache.WithAuth(func(src cache.Source) git.Auth { return a.auth(src.FetchURL(), providerOf(src)) }),
	)
}

func (a *app) workspace() (*workspace.Manager, error) {
	reg, err := a.cache()
	if err != nil {
		return nil, err
	}
	return workspace.NewManager(reg, workspace.WithExecOptions(exec.WithPassthrough())), nil
}

// auth picks credentials for a fetch URL: the SSH key for SSH remotes,
// configured basic credentials for HTTPS, and the GitHub token as a last
// resort for GitHub repositories.
func (a *app) auth(fetchURL string, tag provider.Tag) git.Auth {
	g := a.cfg.Git
	if isSSH(fetchURL) {
		if g.SSHKey == "" {
			return nil
		}
		auth, err := git.SSHKeyFile(sshUser(fetchURL), g.SSHKey, "")
		if err != nil {
			a.log.Warnf("ignoring SSH key %s: %v", g.SSHKey, err)
			return nil
		}
		return auth
	}
	if g.Username != "" && g.Password != "" {
		return git.BasicAuth(g.Username, g.Password)
	}
	if tag == provider.GitHub {
		return git.TokenAuth(a.cfg.GitHub.Token)
	}
	return nil
}

func providerOf(v any) provider.Tag {
	if t, ok := v.(refs.ProviderTagged); ok {
		return provider.Tag(t.ProviderTag())
	}
	return ""
}

func isSSH(u string) bool {
	if strings.HasPrefix(u, "ssh://") {
		return true
	}
	return !strings.Contains(u, "://") && strings.Contains(u, "@") && strings.Contains(u, ":")
}

func sshUser(u string) string {
	u = strings.TrimPrefix(u, "ssh://")
	if user, _, ok := strings.Cut(u, "@"); ok && user != "" {
		return user
	}
	return "git"
}

func (a *app) writeMetrics() error {
	if a.textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(a.textfile, a.registry)
}

// exitCode maps a command failure to a process exit status. A command run
// in a tree passes its own status through.
func exitCode(err error) int {
	var execErr *exec.ExecError
	if errors.As(err, &execErr) && execErr.ExitCode > 0 {
		return execErr.ExitCode
	}
	if platformerrors.GetCode(err) == platformerrors.CodeNotFound {
		return 2
	}
	return 1
}
