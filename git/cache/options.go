package cache

import (
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/metrics"
)

// Defaults for the operation bounds.
const (
	DefaultCloneTimeout = 10 * time.Minute
	DefaultFetchTimeout = 5 * time.Minute
	DefaultLockTimeout  = 15 * time.Minute
)

// Option configures a Registry.
type Option func(*options)

type options struct {
	fs           billy.Filesystem
	fileLocks    bool
	cloneTimeout time.Duration
	fetchTimeout time.Duration
	lockTimeout  time.Duration
	auth         func(Source) git.Auth
	remoteOps    git.RemoteOperations
	metrics      *metrics.Recorder
}

func defaultOptions() *options {
	return &options{
		fileLocks:    true,
		cloneTimeout: DefaultCloneTimeout,
		fetchTimeout: DefaultFetchTimeout,
		lockTimeout:  DefaultLockTimeout,
		auth:         func(Source) git.Auth { return nil },
	}
}

// WithFilesystem sets the filesystem trees and the index live on. File
// locks always use the OS filesystem, so pair a non-OS filesystem with
// WithoutFileLocks.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithoutFileLocks keeps locking in-process only.
func WithoutFileLocks() Option {
	return func(o *options) {
		o.fileLocks = false
	}
}

// WithCloneTimeout bounds each clone. Non-positive values keep the default.
func WithCloneTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cloneTimeout = d
		}
	}
}

// WithFetchTimeout bounds each fetch. Non-positive values keep the default.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.fetchTimeout = d
		}
	}
}

// WithLockTimeout bounds how long an operation waits for an entry lock.
// Non-positive values keep the default.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithAuth supplies credentials per source.
func WithAuth(fn func(Source) git.Auth) Option {
	return func(o *options) {
		o.auth = fn
	}
}

// WithRemoteOperations replaces the clone and fetch implementation.
func WithRemoteOperations(ops git.RemoteOperations) Option {
	return func(o *options) {
		o.remoteOps = ops
	}
}

// WithMetrics records operations on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *options) {
		o.metrics = m
	}
}
