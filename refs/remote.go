package refs

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/jmgilman/go/gitsource/git"
	"github.com/jmgilman/go/gitsource/metrics"
)

// RemoteResolver resolves branches by listing the references the remote
// advertises, like git ls-remote. It needs no REST API and works for any
// provider.
type RemoteResolver struct {
	auth    func(Repository) git.Auth
	timeout time.Duration
	metrics *metrics.Recorder
	ropts   []git.RepositoryOption
}

// RemoteOption configures a RemoteResolver.
type RemoteOption func(*RemoteResolver)

// WithRemoteAuth supplies credentials per repository.
func WithRemoteAuth(fn func(Repository) git.Auth) RemoteOption {
	return func(r *RemoteResolver) {
		r.auth = fn
	}
}

// WithRemoteTimeout bounds each listing.
func WithRemoteTimeout(d time.Duration) RemoteOption {
	return func(r *RemoteResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRemoteMetrics counts lookups by outcome.
func WithRemoteMetrics(m *metrics.Recorder) RemoteOption {
	return func(r *RemoteResolver) {
		r.metrics = m
	}
}

// WithRemoteOperations swaps the git transport layer.
func WithRemoteOperations(ops git.RemoteOperations) RemoteOption {
	return func(r *RemoteResolver) {
		r.ropts = append(r.ropts, git.WithRemoteOperations(ops))
	}
}

// NewRemoteResolver returns a git protocol resolver.
func NewRemoteResolver(opts ...RemoteOption) *RemoteResolver {
	r := &RemoteResolver{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveBranchHead implements Resolver.
func (r *RemoteResolver) ResolveBranchHead(ctx context.Context, repo Repository, branch string) (string, bool) {
	log := clog.FromContext(ctx).With("branch", branch, "url", git.RedactURL(repo.FetchURL()))

	if branch == "" {
		log.Debug("empty branch name")
		r.metrics.Resolution("remote", false)
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var auth git.Auth
	if r.auth != nil {
		auth = r.auth(repo)
	}

	advertised, err := git.ListRemote(ctx, repo.FetchURL(), auth, r.ropts...)
	if err != nil {
		log.Debugf("failed to list remote references: %v", err)
		r.metrics.Resolution("remote", false)
		return "", false
	}

	want := plumbing.NewBranchReferenceName(branch).String()
	for _, ref := range advertised {
		if ref.Name == want {
			r.metrics.Resolution("remote", true)
			return ref.Hash, true
		}
	}

	log.Debug("branch not advertised by remote")
	r.metrics.Resolution("remote", false)
	return "", false
}
