package cache

import (
	"context"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
)

// StartGC runs Prune with strategies every interval until ctx ends or stop
// is called. stop waits for a running prune to finish and is idempotent.
func (r *Registry) StartGC(ctx context.Context, interval time.Duration, strategies ...PruneStrategy) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.Prune(ctx, strategies...); err != nil {
					clog.FromContext(ctx).Warnf("cache gc: %v", err)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}
