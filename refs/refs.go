package refs

import (
	"context"
	"net/url"
	"strings"
)

// Repository is what a resolver needs from a repository.
type Repository interface {
	// APIBaseURL is the root of the provider's REST API for the repository.
	APIBaseURL() string
	// FetchURL is the git address of the repository.
	FetchURL() string
}

// ProviderTagged is implemented by repositories that know their hosting
// provider. Router uses it to choose a resolver.
type ProviderTagged interface {
	ProviderTag() string
}

// Resolver maps a branch name to its head commit.
type Resolver interface {
	ResolveBranchHead(ctx context.Context, repo Repository, branch string) (string, bool)
}

// escapeBranch escapes each path segment of branch and keeps the slashes.
func escapeBranch(branch string) string {
	segs := strings.Split(branch, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
