package workspace

import (
	"context"
	"path/filepath"

	"github.com/chainguard-dev/clog"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/exec"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/git/cache"
)

// Tree is a leased working tree. It is only valid inside the work function
// it was passed to.
type Tree struct {
	entry *cache.Entry
	repo  *git.Repository
	cmd   *exec.Command
	git   *exec.Wrapper
}

func newTree(entry *cache.Entry, repo *git.Repository, opts []exec.Option) *Tree {
	cmd := exec.New(append([]exec.Option{exec.WithInheritEnv()}, opts...)...).
		With(exec.WithDir(entry.Path))
	return &Tree{
		entry: entry,
		repo:  repo,
		cmd:   cmd,
		git:   exec.NewWrapper(cmd.With(exec.WithDisableColors()), "git"),
	}
}

// Path returns the absolute path of the tree.
func (t *Tree) Path() string { return t.entry.Path }

// Entry returns the cache entry backing the tree.
func (t *Tree) Entry() *cache.Entry { return t.entry }

// Repository returns the opened repository.
func (t *Tree) Repository() *git.Repository { return t.repo }

// Join returns elem joined onto the tree path.
func (t *Tree) Join(elem ...string) string {
	return filepath.Join(append([]string{t.entry.Path}, elem...)...)
}

// Run executes name with args in the tree directory.
func (t *Tree) Run(ctx context.Context, name string, args ...string) (*exec.Result, error) {
	res, err := t.cmd.Run(ctx, append([]string{name}, args...)...)
	if err != nil {
		return res, exec.AsPlatformError(err, "command failed in working tree")
	}
	return res, nil
}

// Git runs the git binary in the tree directory.
func (t *Tree) Git(ctx context.Context, args ...string) (*exec.Result, error) {
	res, err := t.git.Run(ctx, args...)
	if err != nil {
		return res, exec.AsPlatformError(err, "git command failed")
	}
	return res, nil
}

// RemoteURL returns the tree's origin URL.
func (t *Tree) RemoteURL() (string, error) {
	return t.repo.RemoteURL(git.DefaultRemote)
}

// Checkout force-checks out ref, leaving HEAD detached. ref may be a commit
// SHA, a branch name (resolved against origin) or a tag. It returns the
// commit checked out.
func (t *Tree) Checkout(ctx context.Context, ref string) (string, error) {
	hash, err := t.repo.Checkout(ref)
	if err != nil {
		return "", errors.WithContext(err, "ref", ref)
	}
	clog.FromContext(ctx).Infof("checked out %s at %s", ref, hash)
	return hash, nil
}

// Head returns the commit HEAD points at.
func (t *Tree) Head() (string, error) {
	return t.repo.Head()
}

// Clean removes untracked files left behind by a previous build.
func (t *Tree) Clean() error {
	return t.repo.Clean()
}
