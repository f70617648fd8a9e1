package refs

import (
	"context"

	"github.com/chainguard-dev/clog"

	"github.com/jmgilman/go/gitsource/git"
)

// Router dispatches to a resolver chosen by the repository's provider tag.
// Repositories without a tag, or with a tag that has no route, go to the
// fallback.
type Router struct {
	routes   map[string]Resolver
	fallback Resolver
}

// NewRouter returns a router that uses fallback when no route matches.
func NewRouter(fallback Resolver) *Router {
	return &Router{routes: make(map[string]Resolver), fallback: fallback}
}

// Route registers res for the provider tag and returns the router.
func (r *Router) Route(tag string, res Resolver) *Router {
	r.routes[tag] = res
	return r
}

// ResolveBranchHead implements Resolver.
func (r *Router) ResolveBranchHead(ctx context.Context, repo Repository, branch string) (string, bool) {
	res := r.resolverFor(repo)
	if res == nil {
		clog.FromContext(ctx).Debugf("no resolver for repository %s", git.RedactURL(repo.FetchURL()))
		return "", false
	}
	return res.ResolveBranchHead(ctx, repo, branch)
}

func (r *Router) resolverFor(repo Repository) Resolver {
	if tagged, ok := repo.(ProviderTagged); ok {
		if res, ok := r.routes[tagged.ProviderTag()]; ok {
			return res
		}
	}
	return r.fallback
}
