package cache

import (
	"context"

	"github.com/chainguard-dev/clog"

	"github.com/jmgilman/go/gitsource/errors"
	"github.com/jmgilman/go/gitsource/metrics"
)

// Prune removes every entry selected by any of the strategies and returns
// the removed keys. Entries that are currently locked are skipped. With no
// strategies only records of vanished directories are dropped.
func (r *Registry) Prune(ctx context.Context, strategies ...PruneStrategy) ([]string, error) {
	if len(strategies) == 0 {
		strategies = []PruneStrategy{PruneMissing()}
	}
	log := clog.FromContext(ctx)

	var removed []string
	var errs []error
	r.refreshIndex()
	for _, md := range r.index.list() {
		present := exists(r.opts.fs, r.Path(md.Key))
		if !selected(strategies, &md, present) {
			continue
		}

		release, ok := r.locks.tryAcquire(md.Key)
		if !ok {
			log.Debugf("skipping prune of %s: entry is in use", md.Key)
			continue
		}
		err := r.removeLocked(ctx, md.Key)
		release()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		log.Infof("pruned cache entry %s", md.Key)
		removed = append(removed, md.Key)
	}

	if len(removed) > 0 {
		r.metrics.CacheOp(metrics.OpPrune)
	}
	if len(errs) > 0 {
		r.metrics.CacheFailure(metrics.OpPrune)
		return removed, errors.Wrap(errors.Join(errs...), errors.CodeCacheFailed, "failed to prune some cache entries")
	}
	return removed, nil
}

func selected(strategies []PruneStrategy, md *Metadata, present bool) bool {
	for _, s := range strategies {
		if s.ShouldPrune(md, present) {
			return true
		}
	}
	return false
}
