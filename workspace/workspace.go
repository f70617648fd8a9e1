// Package workspace runs work inside a cached working tree.
//
// Work receives a Tree, an explicit execution context carrying the absolute
// path of the checkout and an executor pinned to it. The process working
// directory is never changed, so concurrent work on different repositories
// is safe:
//
//	err := mgr.WithRepo(ctx, repo, func(ctx context.Context, t *workspace.Tree) error {
//		if _, err := t.Checkout(ctx, sha); err != nil {
//			return err
//		}
//		_, err := t.Run(ctx, "make", "test")
//		return err
//	})
//
// The cache entry stays locked for the duration of work and is released on
// every exit path, including a panic.
package workspace

import (
	"context"

	"github.com/chainguard-dev/clog"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/exec"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/git/cache"
)

// Manager hands out working trees from a cache registry.
type Manager struct {
	reg      *cache.Registry
	execOpts []exec.Option
	gitOpts  []git.RepositoryOption
}

// Option configures a Manager.
type Option func(*Manager)

// WithExecOptions adds options to the executor every Tree is given, for
// example environment variables or output passthrough.
func WithExecOptions(opts ...exec.Option) Option {
	return func(m *Manager) {
		m.execOpts = append(m.execOpts, opts...)
	}
}

// WithGitOptions adds options used when opening a tree's repository.
func WithGitOptions(opts ...git.RepositoryOption) Option {
	return func(m *Manager) {
		m.gitOpts = append(m.gitOpts, opts...)
	}
}

// NewManager returns a Manager backed by reg.
func NewManager(reg *cache.Registry, opts ...Option) *Manager {
	m := &Manager{reg: reg}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithRepo ensures the cache entry for src is current, then calls work with
// the entry's tree. The entry is locked until work returns or panics.
func (m *Manager) WithRepo(ctx context.Context, src cache.Source, work func(context.Context, *Tree) error) error {
	if err := m.reg.EnsureRoot(); err != nil {
		return err
	}

	entry, release, err := m.reg.Lease(ctx, src)
	if err != nil {
		return err
	}
	defer release()

	repo, err := git.Open(entry.Path, m.gitOpts...)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeCacheFailed, "failed to open cached repository",
			map[string]any{"path": entry.Path, "key": entry.Key})
	}

	ctx = clog.WithValues(ctx, "cache_key", entry.Key)
	clog.FromContext(ctx).Debugf("working in %s (%s)", entry.Path, entry.Action)

	return work(ctx, newTree(entry, repo, m.execOpts))
}
