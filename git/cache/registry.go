package cache

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/gofrs/flock"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/metrics"
)

const (
	indexFile = "index.json"
	indexLock = ".index.lock"
	locksDir  = ".locks"
)

// Registry owns the cache root and every entry below it.
type Registry struct {
	root string
	opts *options

	indexPath string
	indexMu   sync.Mutex
	index     *index
	locks     *keyLocks
	metrics   *metrics.Recorder
}

// NewRegistry opens or creates the cache at root.
func NewRegistry(root string, opts ...Option) (*Registry, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = osfs.New("/")
	}

	if root == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "cache root must not be empty")
	}
	if !filepath.IsAbs(root) {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to resolve cache root")
		}
		root = abs
	}

	r := &Registry{
		root:      root,
		opts:      o,
		indexPath: filepath.Join(root, indexFile),
		metrics:   o.metrics,
	}

	lockDir := ""
	if o.fileLocks {
		lockDir = filepath.Join(root, locksDir)
	}
	r.locks = newKeyLocks(lockDir)

	if err := r.EnsureRoot(); err != nil {
		return nil, err
	}

	idx, err := loadIndex(o.fs, r.indexPath)
	if err != nil {
		return nil, err
	}
	r.index = idx

	return r, nil
}

// Root returns the absolute cache root.
func (r *Registry) Root() string {
	return r.root
}

// Path returns where the entry for key lives. It does not check the key.
func (r *Registry) Path(key string) string {
	return filepath.Join(r.root, key)
}

// EnsureRoot creates the root and the lock directory if missing. It is safe
// to call concurrently and repeatedly.
func (r *Registry) EnsureRoot() error {
	if err := r.opts.fs.MkdirAll(r.root, 0o755); err != nil {
		return errors.WrapWithContext(err, errors.CodeCacheFailed, "failed to create cache root",
			map[string]any{"root": r.root})
	}
	// flock works on OS paths regardless of the configured filesystem.
	if r.locks.dir != "" {
		if err := os.MkdirAll(r.locks.dir, 0o755); err != nil {
			return errors.WrapWithContext(err, errors.CodeCacheFailed, "failed to create lock directory",
				map[string]any{"dir": r.locks.dir})
		}
	}
	return nil
}

// Ensure prepares the entry for src and releases its lock before returning.
func (r *Registry) Ensure(ctx context.Context, src Source) (*Entry, error) {
	entry, release, err := r.Lease(ctx, src)
	if err != nil {
		return nil, err
	}
	release()
	return entry, nil
}

// Lease prepares the entry for src and returns with its lock held. The
// caller must call release exactly when done with the tree; extra calls are
// no-ops.
func (r *Registry) Lease(ctx context.Context, src Source) (entry *Entry, release func(), err error) {
	key := src.CacheKey()
	if err := ValidateKey(key); err != nil {
		return nil, nil, err
	}
	fetchURL := src.FetchURL()
	if fetchURL == "" {
		return nil, nil, errors.WithContext(
			errors.New(errors.CodeInvalidInput, "source has no fetch url"), "key", key)
	}

	if err := r.EnsureRoot(); err != nil {
		return nil, nil, err
	}

	release, err = r.lock(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	entry, err = r.ensureLocked(ctx, src, key, fetchURL)
	if err != nil {
		release()
		return nil, nil, err
	}
	return entry, release, nil
}

// Remove deletes the entry for key.
func (r *Registry) Remove(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	release, err := r.lock(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return r.removeLocked(ctx, key)
}

func (r *Registry) removeLocked(ctx context.Context, key string) error {
	if err := removeAll(r.opts.fs, r.Path(key)); err != nil {
		r.metrics.CacheFailure(metrics.OpRemove)
		return errors.WrapWithContext(err, errors.CodeCacheFailed, "failed to remove cache entry",
			map[string]any{"key": key})
	}
	if err := r.updateIndex(ctx, func(idx *index) { idx.delete(key) }); err != nil {
		clog.FromContext(ctx).Warnf("failed to save cache index: %v", err)
	}
	r.metrics.CacheOp(metrics.OpRemove)
	return nil
}

// List returns the index records sorted by key, including those written by
// other processes sharing the root.
func (r *Registry) List() []Metadata {
	r.refreshIndex()
	return r.index.list()
}

// Stats summarizes the entries and their disk usage.
func (r *Registry) Stats() (*Stats, error) {
	r.refreshIndex()
	records := r.index.list()
	stats := &Stats{Entries: len(records)}

	for _, md := range records {
		size, err := dirSize(r.opts.fs, r.Path(md.Key))
		if err != nil && !stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.WrapWithContext(err, errors.CodeCacheFailed, "failed to measure cache entry",
				map[string]any{"key": md.Key})
		}
		stats.TotalSize += size

		at := md.LastAccess
		if stats.OldestAccess == nil || at.Before(*stats.OldestAccess) {
			stats.OldestAccess = &at
		}
		if stats.NewestAccess == nil || at.After(*stats.NewestAccess) {
			stats.NewestAccess = &at
		}
	}
	return stats, nil
}

func (r *Registry) lock(ctx context.Context, key string) (func(), error) {
	lockCtx := ctx
	if r.opts.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, r.opts.lockTimeout)
		defer cancel()
	}

	start := time.Now()
	release, err := r.locks.acquire(lockCtx, key)
	r.metrics.LockWait(time.Since(start))
	if err != nil {
		clog.FromContext(ctx).Warnf("could not lock cache entry %s after %s: %v", key, time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	return release, nil
}

// updateIndex applies fn to the index as currently stored on disk and saves
// the result, so records written by other processes sharing the root are
// kept. The in-memory index adopts the saved state even when saving fails.
func (r *Registry) updateIndex(ctx context.Context, fn func(*index)) error {
	r.indexMu.Lock()
	defer r.indexMu.Unlock()

	if r.locks.dir != "" {
		fl := flock.New(filepath.Join(r.locks.dir, indexLock))
		locked, err := fl.TryLockContext(ctx, lockRetryInterval)
		if err != nil || !locked {
			if err == nil {
				err = context.DeadlineExceeded
			}
			fn(r.index)
			return errors.Wrap(err, errors.CodeCacheFailed, "failed to lock cache index")
		}
		defer func() { _ = fl.Unlock() }()
	}

	current, err := loadIndex(r.opts.fs, r.indexPath)
	if err != nil {
		fn(r.index)
		return err
	}
	fn(current)
	err = current.save(r.opts.fs, r.indexPath)
	r.index.adopt(current)
	return err
}

// refreshIndex picks up records saved by other processes. The index file is
// replaced atomically, so no lock is needed to read it.
func (r *Registry) refreshIndex() {
	r.indexMu.Lock()
	defer r.indexMu.Unlock()

	current, err := loadIndex(r.opts.fs, r.indexPath)
	if err != nil {
		return
	}
	r.index.adopt(current)
}

// ValidateKey reports whether key can name an entry directory.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return errors.New(errors.CodeInvalidInput, "cache key must not be empty")
	case strings.ContainsAny(key, `/\`):
		return errors.Newf(errors.CodeInvalidInput, "cache key %q must not contain path separators", key)
	case strings.HasPrefix(key, "."):
		return errors.Newf(errors.CodeInvalidInput, "cache key %q must not start with a dot", key)
	}
	return nil
}
