package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/git/testutil"
	"github.com/jmgilman/go/gitsource/metrics"
)

type source struct {
	key string
	url string
}

func (s source) CacheKey() string { return s.key }
func (s source) FetchURL() string { return s.url }

func newRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	reg, err := NewRegistry(filepath.Join(t.TempDir(), "cache"), opts...)
	require.NoError(t, err)
	return reg
}

func originOf(t *testing.T, path string) string {
	t.Helper()
	repo, err := git.Open(path)
	require.NoError(t, err)
	url, err := repo.RemoteURL(git.DefaultRemote)
	require.NoError(t, err)
	return url
}

func TestNewRegistry(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "cache")
	reg, err := NewRegistry(root)
	require.NoError(t, err)

	assert.Equal(t, root, reg.Root())
	assert.DirExists(t, root)
	assert.DirExists(t, filepath.Join(root, locksDir))

	// Opening the same root again is fine.
	_, err = NewRegistry(root)
	require.NoError(t, err)
}

func TestNewRegistry_EmptyRoot(t *testing.T) {
	_, err := NewRegistry("")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestNewRegistry_NonPositiveTimeoutsKeepDefaults(t *testing.T) {
	reg := newRegistry(t, WithCloneTimeout(0), WithFetchTimeout(-time.Second), WithLockTimeout(0))
	assert.Equal(t, DefaultCloneTimeout, reg.opts.cloneTimeout)
	assert.Equal(t, DefaultFetchTimeout, reg.opts.fetchTimeout)
	assert.Equal(t, DefaultLockTimeout, reg.opts.lockTimeout)

	reg = newRegistry(t, WithCloneTimeout(time.Minute))
	assert.Equal(t, time.Minute, reg.opts.cloneTimeout)
}

func TestEnsure_ClonesMissingEntry(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	reg := newRegistry(t)

	entry, err := reg.Ensure(context.Background(), source{"web", up.Path})
	require.NoError(t, err)

	assert.Equal(t, ActionCloned, entry.Action)
	assert.Equal(t, reg.Path("web"), entry.Path)
	assert.Equal(t, up.Path, originOf(t, entry.Path))
	assert.FileExists(t, filepath.Join(entry.Path, "README.md"))

	md, ok := reg.index.get("web")
	require.True(t, ok)
	assert.Equal(t, up.Path, md.FetchURL)
	assert.Zero(t, md.Rebuilds)

	// The index survives reopening.
	reopened, err := NewRegistry(reg.Root())
	require.NoError(t, err)
	require.Len(t, reopened.List(), 1)
	assert.Equal(t, "web", reopened.List()[0].Key)
}

func TestEnsure_FetchesWhenURLUnchanged(t *testing.T) {
	ctx := context.Background()
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	reg := newRegistry(t)
	src := source{"web", up.Path}

	first, err := reg.Ensure(ctx, src)
	require.NoError(t, err)
	marker := filepath.Join(first.Path, "build-output.log")
	require.NoError(t, os.WriteFile(marker, []byte("kept"), 0o644))

	newHead := up.Commit(t, testutil.DefaultBranch, "CHANGELOG.md", "v2\n")

	second, err := reg.Ensure(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, second.Action)
	assert.FileExists(t, marker, "an update must not reclone the tree")

	repo, err := git.Open(second.Path)
	require.NoError(t, err)
	got, err := repo.ResolveRevision(testutil.DefaultBranch)
	require.NoError(t, err)
	assert.Equal(t, newHead, got)
}

func TestEnsure_RebuildsWhenURLChanges(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	upA := testutil.NewUpstream(t, filepath.Join(dir, "a"))
	upB := testutil.NewUpstream(t, filepath.Join(dir, "b"))

	reg := newRegistry(t)

	first, err := reg.Ensure(ctx, source{"test-repo", upA.Path})
	require.NoError(t, err)
	require.Equal(t, upA.Path, originOf(t, first.Path))
	marker := filepath.Join(first.Path, "stale.txt")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o644))

	second, err := reg.Ensure(ctx, source{"test-repo", upB.Path})
	require.NoError(t, err)

	assert.Equal(t, ActionRebuilt, second.Action)
	assert.Equal(t, upB.Path, originOf(t, second.Path))
	assert.NoFileExists(t, marker)

	md, ok := reg.index.get("test-repo")
	require.True(t, ok)
	assert.Equal(t, 1, md.Rebuilds)
	assert.Equal(t, upB.Path, md.FetchURL)
}

func TestEnsure_RebuildsEntryThatIsNotARepository(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	reg := newRegistry(t)

	junk := reg.Path("web")
	require.NoError(t, os.MkdirAll(junk, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(junk, "partial"), []byte("x"), 0o644))

	entry, err := reg.Ensure(context.Background(), source{"web", up.Path})
	require.NoError(t, err)
	assert.Equal(t, ActionRebuilt, entry.Action)
	assert.NoFileExists(t, filepath.Join(junk, "partial"))
	assert.Equal(t, up.Path, originOf(t, entry.Path))
}

func TestEnsure_FailedCloneLeavesNothingBehind(t *testing.T) {
	reg := newRegistry(t)
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	_, err := reg.Ensure(context.Background(), source{"web", missing})
	require.Error(t, err)
	assert.Equal(t, errors.CodeCacheFailed, errors.GetCode(err))
	assert.NoDirExists(t, reg.Path("web"))
	assert.Empty(t, reg.List())
}

func TestEnsure_RecreatesDeletedRoot(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	reg := newRegistry(t)

	require.NoError(t, os.RemoveAll(reg.Root()))

	entry, err := reg.Ensure(context.Background(), source{"web", up.Path})
	require.NoError(t, err)
	assert.Equal(t, ActionCloned, entry.Action)
}

func TestEnsure_InvalidInput(t *testing.T) {
	reg := newRegistry(t)
	tests := []struct {
		name string
		src  source
	}{
		{"empty key", source{"", "https://example.com/a.git"}},
		{"separator", source{"a/b", "https://example.com/a.git"}},
		{"parent", source{"..", "https://example.com/a.git"}},
		{"hidden", source{".locks", "https://example.com/a.git"}},
		{"no url", source{"web", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Ensure(context.Background(), tt.src)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		})
	}
}

func TestLease_HoldsKeyUntilRelease(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	up := testutil.NewUpstream(t, filepath.Join(dir, "upstream"))
	other := testutil.NewUpstream(t, filepath.Join(dir, "other"))
	reg := newRegistry(t, WithLockTimeout(200*time.Millisecond))

	_, release, err := reg.Lease(ctx, source{"web", up.Path})
	require.NoError(t, err)

	_, err = reg.Ensure(ctx, source{"web", up.Path})
	require.Error(t, err)
	assert.Equal(t, errors.CodeLockTimeout, errors.GetCode(err))
	assert.True(t, errors.IsRetryable(err))

	// Unrelated keys are not blocked.
	_, err = reg.Ensure(ctx, source{"other", other.Path})
	require.NoError(t, err)

	release()
	release()

	entry, err := reg.Ensure(ctx, source{"web", up.Path})
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, entry.Action)
}

func TestRemove(t *testing.T) {
	up := testutil.NewUpstream(t, filepath.Join(t.TempDir(), "upstream"))
	reg := newRegistry(t)
	ctx := context.Background()

	entry, err := reg.Ensure(ctx, source{"web", up.Path})
	require.NoError(t, err)

	require.NoError(t, reg.Remove(ctx, "web"))
	assert.NoDirExists(t, entry.Path)
	assert.Empty(t, reg.List())

	// Removing a missing entry is fine.
	require.NoError(t, reg.Remove(ctx, "web"))
	require.Error(t, reg.Remove(ctx, "../web"))
}

func TestRegistry_SharedRootKeepsEveryRecord(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	root := filepath.Join(dir, "cache")
	one := testutil.NewUpstream(t, filepath.Join(dir, "one"))
	two := testutil.NewUpstream(t, filepath.Join(dir, "two"))

	// Two registries on one root stand in for two worker processes.
	a, err := NewRegistry(root)
	require.NoError(t, err)
	b, err := NewRegistry(root)
	require.NoError(t, err)

	_, err = a.Ensure(ctx, source{"one", one.Path})
	require.NoError(t, err)
	_, err = b.Ensure(ctx, source{"two", two.Path})
	require.NoError(t, err)

	fresh, err := NewRegistry(root)
	require.NoError(t, err)
	var keys []string
	for _, md := range fresh.List() {
		keys = append(keys, md.Key)
	}
	assert.Equal(t, []string{"one", "two"}, keys)
	assert.Len(t, a.List(), 2)

	all, err := PruneMatching("*")
	require.NoError(t, err)
	removed, err := b.Prune(ctx, all)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, removed)
	assert.NoDirExists(t, filepath.Join(root, "one"))
	assert.NoDirExists(t, filepath.Join(root, "two"))
	assert.Empty(t, a.List())
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	a := testutil.NewUpstream(t, filepath.Join(dir, "a"))
	b := testutil.NewUpstream(t, filepath.Join(dir, "b"))
	reg := newRegistry(t)
	ctx := context.Background()

	_, err := reg.Ensure(ctx, source{"a", a.Path})
	require.NoError(t, err)
	_, err = reg.Ensure(ctx, source{"b", b.Path})
	require.NoError(t, err)

	stats, err := reg.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Positive(t, stats.TotalSize)
	require.NotNil(t, stats.OldestAccess)
	require.NotNil(t, stats.NewestAccess)
	assert.False(t, stats.NewestAccess.Before(*stats.OldestAccess))
}

func TestRegistryMetrics(t *testing.T) {
	dir := t.TempDir()
	upA := testutil.NewUpstream(t, filepath.Join(dir, "a"))
	upB := testutil.NewUpstream(t, filepath.Join(dir, "b"))

	promReg := prometheus.NewRegistry()
	reg := newRegistry(t, WithMetrics(metrics.New(promReg)))
	ctx := context.Background()

	_, err := reg.Ensure(ctx, source{"k", upA.Path})
	require.NoError(t, err)
	_, err = reg.Ensure(ctx, source{"k", upA.Path})
	require.NoError(t, err)
	_, err = reg.Ensure(ctx, source{"k", upB.Path})
	require.NoError(t, err)

	count, err := promtestutil.GatherAndCount(promReg, "gitsource_cache_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "clone, fetch and rebuild series")
}
