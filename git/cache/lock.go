package cache

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/jmgilman/go/gitsource/errors"
)

const lockRetryInterval = 100 * time.Millisecond

// keyLocks serializes work per cache key. Within the process a one-slot
// channel per key acts as a mutex that can give up on a context; across
// processes a flock file per key does the same.
type keyLocks struct {
	mu      sync.Mutex
	entries map[string]*keyLock
	dir     string
}

type keyLock struct {
	slot chan struct{}
	refs int
}

func newKeyLocks(dir string) *keyLocks {
	return &keyLocks{entries: map[string]*keyLock{}, dir: dir}
}

func (k *keyLocks) ref(key string) *keyLock {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.entries[key]
	if !ok {
		l = &keyLock{slot: make(chan struct{}, 1)}
		k.entries[key] = l
	}
	l.refs++
	return l
}

func (k *keyLocks) unref(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l := k.entries[key]
	l.refs--
	if l.refs == 0 {
		delete(k.entries, key)
	}
}

func (k *keyLocks) lockPath(key string) string {
	return filepath.Join(k.dir, key+".lock")
}

// acquire blocks until key is held or ctx ends. The returned release is safe
// to call more than once.
func (k *keyLocks) acquire(ctx context.Context, key string) (func(), error) {
	l := k.ref(key)

	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		k.unref(key)
		return nil, lockError(ctx.Err(), key)
	}

	var fl *flock.Flock
	if k.dir != "" {
		fl = flock.New(k.lockPath(key))
		locked, err := fl.TryLockContext(ctx, lockRetryInterval)
		if err != nil || !locked {
			<-l.slot
			k.unref(key)
			if err == nil {
				err = context.DeadlineExceeded
			}
			return nil, lockError(err, key)
		}
	}

	return k.releaser(key, l, fl), nil
}

// tryAcquire takes key only if nobody holds it.
func (k *keyLocks) tryAcquire(key string) (func(), bool) {
	l := k.ref(key)

	select {
	case l.slot <- struct{}{}:
	default:
		k.unref(key)
		return nil, false
	}

	var fl *flock.Flock
	if k.dir != "" {
		fl = flock.New(k.lockPath(key))
		if locked, err := fl.TryLock(); err != nil || !locked {
			<-l.slot
			k.unref(key)
			return nil, false
		}
	}

	return k.releaser(key, l, fl), true
}

func (k *keyLocks) releaser(key string, l *keyLock, fl *flock.Flock) func() {
	return sync.OnceFunc(func() {
		if fl != nil {
			_ = fl.Unlock()
		}
		<-l.slot
		k.unref(key)
	})
}

func lockError(err error, key string) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapWithContext(err, errors.CodeLockTimeout,
			"timed out waiting for cache entry lock", map[string]any{"key": key})
	}
	return errors.WrapWithContext(err, errors.CodeCacheFailed,
		"failed to acquire cache entry lock", map[string]any{"key": key})
}
