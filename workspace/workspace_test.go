package workspace_test

import (
	"context"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/git/cache"
	"github.com/jmgilman/go/gitsource/git/testutil"
	"github.com/jmgilman/go/gitsource/provider"
	"github.com/jmgilman/go/gitsource/repository"
	"github.com/jmgilman/go/gitsource/workspace"
)

type source struct {
	key string
	url string
}

func (s source) CacheKey() string { return s.key }
func (s source) FetchURL() string { return s.url }

func newManager(t *testing.T, opts ...cache.Option) *workspace.Manager {
	t.Helper()
	reg, err := cache.NewRegistry(filepath.Join(t.TempDir(), "repos"), opts...)
	require.NoError(t, err)
	return workspace.NewManager(reg)
}

func TestWithRepo_UnchangedURLUpdates(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	mgr := newManager(t)
	ctx := context.Background()
	src := source{"web", up.Path}

	var marker string
	err := mgr.WithRepo(ctx, src, func(_ context.Context, tree *workspace.Tree) error {
		assert.Equal(t, cache.ActionCloned, tree.Entry().Action)
		marker = tree.Join("build.log")
		return os.WriteFile(marker, []byte("cached"), 0o644)
	})
	require.NoError(t, err)

	err = mgr.WithRepo(ctx, src, func(_ context.Context, tree *workspace.Tree) error {
		assert.Equal(t, cache.ActionUpdated, tree.Entry().Action)
		origin, err := tree.RemoteURL()
		require.NoError(t, err)
		assert.Equal(t, up.Path, origin)
		return nil
	})
	require.NoError(t, err)
	assert.FileExists(t, marker)
}

func TestWithRepo_ChangedURLRebuilds(t *testing.T) {
	a := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "a"))
	b := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "b"))
	mgr := newManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.WithRepo(ctx, source{"test-repo", a.Path}, func(context.Context, *workspace.Tree) error {
		return nil
	}))

	err := mgr.WithRepo(ctx, source{"test-repo", b.Path}, func(_ context.Context, tree *workspace.Tree) error {
		assert.Equal(t, cache.ActionRebuilt, tree.Entry().Action)
		origin, err := tree.RemoteURL()
		require.NoError(t, err)
		assert.Equal(t, b.Path, origin)
		return nil
	})
	require.NoError(t, err)
}

func TestWithRepo_Repository(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	repo, err := repository.New(provider.Default(), provider.Stash,
		"https://stash.example.com/scm/myproject/myrepo.git",
		repository.WithFetchURL(up.Path))
	require.NoError(t, err)

	mgr := newManager(t)
	err = mgr.WithRepo(context.Background(), repo, func(_ context.Context, tree *workspace.Tree) error {
		assert.Equal(t, "stash.example.com-myproject-myrepo", tree.Entry().Key)
		assert.Equal(t, "stash.example.com-myproject-myrepo", filepath.Base(tree.Path()))
		return nil
	})
	require.NoError(t, err)
}

func TestWithRepo_ReturnsWorkError(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	mgr := newManager(t)

	want := errors.New(errors.CodeExecutionFailed, "build failed")
	err := mgr.WithRepo(context.Background(), source{"web", up.Path}, func(context.Context, *workspace.Tree) error {
		return want
	})
	assert.ErrorIs(t, err, want)
}

func TestWithRepo_ReleasesAfterPanic(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	mgr := newManager(t, cache.WithLockTimeout(2*time.Second))
	ctx := context.Background()
	src := source{"web", up.Path}

	assert.PanicsWithValue(t, "boom", func() {
		_ = mgr.WithRepo(ctx, src, func(context.Context, *workspace.Tree) error {
			panic("boom")
		})
	})

	var ran bool
	err := mgr.WithRepo(ctx, src, func(context.Context, *workspace.Tree) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestWithRepo_SameKeyIsExclusive(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	mgr := newManager(t)
	src := source{"web", up.Path}

	var active, peak atomic.Int32
	g, ctx := errgroup.WithContext(context.Background())
	for range 4 {
		g.Go(func() error {
			return mgr.WithRepo(ctx, src, func(context.Context, *workspace.Tree) error {
				n := active.Add(1)
				defer active.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				return nil
			})
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), peak.Load())
}

func TestWithRepo_DifferentKeysOverlap(t *testing.T) {
	a := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "a"))
	b := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "b"))
	mgr := newManager(t)

	// Each work function waits until both are inside; serialized keys would
	// never get there.
	var arrived sync.WaitGroup
	arrived.Add(2)
	both := make(chan struct{})
	go func() {
		arrived.Wait()
		close(both)
	}()

	work := func(context.Context, *workspace.Tree) error {
		arrived.Done()
		select {
		case <-both:
			return nil
		case <-time.After(10 * time.Second):
			return errors.New(errors.CodeTimeout, "other key never entered")
		}
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return mgr.WithRepo(ctx, source{"a", a.Path}, work) })
	g.Go(func() error { return mgr.WithRepo(ctx, source{"b", b.Path}, work) })
	require.NoError(t, g.Wait())
}

func TestTree_RunInTreeDirectory(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	mgr := newManager(t)

	err := mgr.WithRepo(context.Background(), source{"web", up.Path}, func(ctx context.Context, tree *workspace.Tree) error {
		res, err := tree.Run(ctx, "pwd")
		require.NoError(t, err)

		want, err := filepath.EvalSymlinks(tree.Path())
		require.NoError(t, err)
		got, err := filepath.EvalSymlinks(strings.TrimSpace(res.Stdout))
		require.NoError(t, err)
		assert.Equal(t, want, got)

		_, err = tree.Run(ctx, "sh", "-c", "exit 3")
		require.Error(t, err)
		assert.Equal(t, errors.CodeExecutionFailed, errors.GetCode(err))
		return nil
	})
	require.NoError(t, err)

	// The process directory was never touched.
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.NotContains(t, wd, "repos")
}

func TestTree_Checkout(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	feature := up.Commit(t, "feature", "feature.txt", "feature\n")
	up.Tag(t, "v1.0.0", feature)
	master := up.BranchHead(t, testutil.DefaultBranch)
	mgr := newManager(t)

	err := mgr.WithRepo(context.Background(), source{"web", up.Path}, func(ctx context.Context, tree *workspace.Tree) error {
		head, err := tree.Checkout(ctx, "feature")
		require.NoError(t, err)
		assert.Equal(t, feature, head)
		assert.FileExists(t, tree.Join("feature.txt"))

		head, err = tree.Checkout(ctx, master)
		require.NoError(t, err)
		assert.Equal(t, master, head)
		assert.NoFileExists(t, tree.Join("feature.txt"))

		head, err = tree.Checkout(ctx, "v1.0.0")
		require.NoError(t, err)
		assert.Equal(t, feature, head)

		current, err := tree.Head()
		require.NoError(t, err)
		assert.Equal(t, feature, current)

		_, err = tree.Checkout(ctx, "does-not-exist")
		assert.Error(t, err)
		return nil
	})
	require.NoError(t, err)
}

func TestWithRepo_InvalidSource(t *testing.T) {
	mgr := newManager(t)
	called := false
	err := mgr.WithRepo(context.Background(), source{"", "/tmp/x"}, func(context.Context, *workspace.Tree) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.False(t, called)
}

func TestTree_Clean(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	mgr := newManager(t)

	err := mgr.WithRepo(context.Background(), source{"web", up.Path}, func(_ context.Context, tree *workspace.Tree) error {
		require.NoError(t, os.MkdirAll(tree.Join("out"), 0o755))
		require.NoError(t, os.WriteFile(tree.Join("out", "artifact"), []byte("x"), 0o644))

		require.NoError(t, tree.Clean())
		assert.NoDirExists(t, tree.Join("out"))
		assert.FileExists(t, tree.Join("README.md"))
		return nil
	})
	require.NoError(t, err)
}

func TestTree_Git(t *testing.T) {
	if _, err := osexec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	mgr := newManager(t)

	err := mgr.WithRepo(context.Background(), source{"web", up.Path}, func(ctx context.Context, tree *workspace.Tree) error {
		res, err := tree.Git(ctx, "rev-parse", "HEAD")
		require.NoError(t, err)

		head, err := tree.Head()
		require.NoError(t, err)
		assert.Equal(t, head, strings.TrimSpace(res.Stdout))
		return nil
	})
	require.NoError(t, err)
}
