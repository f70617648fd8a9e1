package cache

import (
	"context"
	stderrors "errors"
	"os"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/metrics"
)

// ensureLocked brings the entry for key in line with fetchURL. The caller
// holds the key lock.
func (r *Registry) ensureLocked(ctx context.Context, src Source, key, fetchURL string) (*Entry, error) {
	path := r.Path(key)
	log := clog.FromContext(ctx).With("cache_key", key)

	action, err := r.inspect(ctx, path, fetchURL)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionCloned:
		log.Infof("cloning %s into %s", git.RedactURL(fetchURL), path)
		if err := r.clone(ctx, src, path, fetchURL); err != nil {
			r.metrics.CacheFailure(metrics.OpClone)
			return nil, err
		}
		r.metrics.CacheOp(metrics.OpClone)

	case ActionRebuilt:
		if err := removeAll(r.opts.fs, path); err != nil {
			r.metrics.CacheFailure(metrics.OpRebuild)
			return nil, errors.WrapWithContext(err, errors.CodeCacheFailed, "failed to remove stale cache entry",
				map[string]any{"key": key, "path": path})
		}
		if err := r.clone(ctx, src, path, fetchURL); err != nil {
			r.metrics.CacheFailure(metrics.OpRebuild)
			return nil, err
		}
		r.metrics.CacheOp(metrics.OpRebuild)

	case ActionUpdated:
		log.Debugf("fetching %s", git.RedactURL(fetchURL))
		if err := r.fetch(ctx, src, path); err != nil {
			r.metrics.CacheFailure(metrics.OpFetch)
			return nil, err
		}
		r.metrics.CacheOp(metrics.OpFetch)
	}

	now := time.Now()
	if err := r.updateIndex(ctx, func(idx *index) { idx.record(key, fetchURL, action, now) }); err != nil {
		log.Warnf("failed to save cache index: %v", err)
	}

	return &Entry{Key: key, Path: path, FetchURL: fetchURL, Action: action}, nil
}

// inspect decides what has to happen to the entry at path. Anything that
// does not prove the entry was cloned from fetchURL leads to a rebuild.
func (r *Registry) inspect(ctx context.Context, path, fetchURL string) (Action, error) {
	log := clog.FromContext(ctx)

	if _, err := r.opts.fs.Stat(path); err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return ActionCloned, nil
		}
		return "", errors.WrapWithContext(err, errors.CodeCacheFailed, "failed to inspect cache entry",
			map[string]any{"path": path})
	}

	repo, err := git.Open(path, r.gitOptions()...)
	if err != nil {
		log.Warnf("cache entry %s is not a usable repository, rebuilding: %v", path, err)
		return ActionRebuilt, nil
	}

	origin, err := repo.RemoteURL(git.DefaultRemote)
	if err != nil {
		log.Warnf("cache entry %s has no usable origin, rebuilding: %v", path, err)
		return ActionRebuilt, nil
	}

	if origin != fetchURL {
		log.Warnf("origin of cache entry %s moved from %s to %s, rebuilding",
			path, git.RedactURL(origin), git.RedactURL(fetchURL))
		return ActionRebuilt, nil
	}

	return ActionUpdated, nil
}

func (r *Registry) clone(ctx context.Context, src Source, path, fetchURL string) error {
	if r.opts.cloneTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.cloneTimeout)
		defer cancel()
	}

	_, err := git.Clone(ctx, path, git.CloneOptions{
		URL:  fetchURL,
		Auth: r.opts.auth(src),
	}, r.gitOptions()...)
	if err != nil {
		// Never leave a half-written tree behind; the next ensure would
		// otherwise try to fetch into it.
		if rmErr := removeAll(r.opts.fs, path); rmErr != nil {
			clog.FromContext(ctx).Warnf("failed to clean up failed clone at %s: %v", path, rmErr)
		}
		return errors.WrapWithContext(err, errors.CodeCacheFailed, "failed to clone repository",
			map[string]any{"path": path, "url": git.RedactURL(fetchURL)})
	}
	return nil
}

func (r *Registry) fetch(ctx context.Context, src Source, path string) error {
	if r.opts.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.fetchTimeout)
		defer cancel()
	}

	repo, err := git.Open(path, r.gitOptions()...)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeCacheFailed, "failed to open cache entry",
			map[string]any{"path": path})
	}
	if err := repo.Fetch(ctx, git.FetchOptions{
		Auth:  r.opts.auth(src),
		Prune: true,
		Tags:  true,
	}); err != nil {
		return errors.WrapWithContext(err, errors.CodeCacheFailed, "failed to update cache entry",
			map[string]any{"path": path})
	}
	return nil
}

func (r *Registry) gitOptions() []git.RepositoryOption {
	opts := []git.RepositoryOption{git.WithFilesystem(r.opts.fs)}
	if r.opts.remoteOps != nil {
		opts = append(opts, git.WithRemoteOperations(r.opts.remoteOps))
	}
	return opts
}
