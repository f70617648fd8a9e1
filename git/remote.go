package git

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// RemoteOperations performs the network-facing parts of the package.
//
// The default implementation talks to real remotes through go-git. Tests
// pass their own implementation with WithRemoteOperations to simulate
// unreachable hosts or rejected credentials without a network:
//
//	type offline struct{ git.RemoteOperations }
//
//	func (offline) Fetch(context.Context, *git.Repository, git.FetchOptions) error {
//	    return errors.New(errors.CodeNetwork, "host unreachable")
//	}
//
// Implementations must honor ctx and return platform errors so callers can
// tell retryable failures from permanent ones.
type RemoteOperations interface {
	// Clone clones opts.URL into path on fs.
	Clone(ctx context.Context, fs billy.Filesystem, path string, opts CloneOptions) (*Repository, error)

	// Fetch updates the remote-tracking references of repo.
	Fetch(ctx context.Context, repo *Repository, opts FetchOptions) error

	// List returns the references advertised by the repository at url.
	List(ctx context.Context, url string, auth Auth) ([]Reference, error)
}

// defaultRemoteOps is the go-git backed RemoteOperations.
type defaultRemoteOps struct{}

var defaultRemote RemoteOperations = defaultRemoteOps{}

// Clone creates path on fs and clones opts.URL into it with all tags. The
// repository keeps its git directory at path/.git so the result looks like a
// regular "git clone". When opts.Branch is set only that branch is checked
// out; other branches are still fetched as remote-tracking references.
func (d defaultRemoteOps) Clone(ctx context.Context, fs billy.Filesystem, path string, opts CloneOptions) (*Repository, error) {
	if opts.URL == "" {
		return nil, wrapError(gogit.ErrMissingURL, "failed to clone repository")
	}

	if err := fs.MkdirAll(path, 0o755); err != nil {
		return nil, wrapError(err, "failed to create clone directory")
	}
	scoped, err := fs.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}
	dotGit, err := scoped.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, wrapError(err, "failed to create .git filesystem")
	}

	co := &gogit.CloneOptions{
		URL:        opts.URL,
		Auth:       opts.Auth,
		Depth:      opts.Depth,
		NoCheckout: opts.NoCheckout,
		Tags:       gogit.AllTags,
	}
	if opts.Branch != "" {
		co.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}

	repo, err := gogit.CloneContext(ctx, newStorage(dotGit), scoped, co)
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to clone %s", opts.URL))
	}

	return &Repository{path: path, repo: repo, fs: scoped, remoteOps: d}, nil
}

// Fetch force-updates refs/remotes/<name>/* from every branch of the remote
// named by opts.RemoteName, or origin. An up-to-date repository is not an
// error. With opts.Prune, remote-tracking references of deleted branches are
// removed; with opts.Tags, all tags are fetched as well.
func (d defaultRemoteOps) Fetch(ctx context.Context, repo *Repository, opts FetchOptions) error {
	name := opts.RemoteName
	if name == "" {
		name = DefaultRemote
	}

	fo := &gogit.FetchOptions{
		RemoteName: name,
		RefSpecs: []config.RefSpec{
			config.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", name)),
		},
		Auth:  opts.Auth,
		Depth: opts.Depth,
		Prune: opts.Prune,
		Force: true,
	}
	if opts.Tags {
		fo.Tags = gogit.AllTags
	}

	err := repo.repo.FetchContext(ctx, fo)
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return wrapError(err, fmt.Sprintf("failed to fetch from %s", name))
	}
	return nil
}

// List asks the remote for its advertised references through a throwaway
// in-memory remote, so no local repository is needed. Symbolic references
// such as HEAD are left out; every returned Reference names a commit or tag
// object.
func (d defaultRemoteOps) List(ctx context.Context, url string, auth Auth) ([]Reference, error) {
	remote := gogit.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: DefaultRemote,
		URLs: []string{url},
	})

	refs, err := remote.ListContext(ctx, &gogit.ListOptions{Auth: auth})
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to list references of %s", url))
	}

	out := make([]Reference, 0, len(refs))
	for _, ref := range refs {
		if ref.Type() != plumbing.HashReference {
			continue
		}
		out = append(out, Reference{Name: ref.Name().String(), Hash: ref.Hash().String()})
	}
	return out, nil
}

// ListRemote returns the references advertised by the repository at url
// without touching any local repository, like git ls-remote.
//
//	refs, err := git.ListRemote(ctx, "https://git.example.com/scm/team/web.git", nil)
//	for _, ref := range refs {
//	    if ref.Name == "refs/heads/master" {
//	        fmt.Println(ref.Hash)
//	    }
//	}
//
// Only WithRemoteOperations is meaningful among opts.
func ListRemote(ctx context.Context, url string, auth Auth, opts ...RepositoryOption) ([]Reference, error) {
	o := newRepositoryOptions(opts)
	return o.remoteOps.List(ctx, url, auth)
}

// Fetch updates the remote-tracking references from the named remote. The
// working tree and local branches are left alone; use Checkout to move the
// tree to a fetched revision.
func (r *Repository) Fetch(ctx context.Context, opts FetchOptions) error {
	return r.ops().Fetch(ctx, r, opts)
}

// Remotes lists the configured remotes with all of their URLs.
func (r *Repository) Remotes() ([]Remote, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, wrapError(err, "failed to list remotes")
	}
	out := make([]Remote, 0, len(remotes))
	for _, rm := range remotes {
		cfg := rm.Config()
		out = append(out, Remote{Name: cfg.Name, URLs: cfg.URLs})
	}
	return out, nil
}

// RemoteURL returns the first URL configured for the named remote. A missing
// remote is CodeNotFound.
func (r *Repository) RemoteURL(name string) (string, error) {
	rm, err := r.repo.Remote(name)
	if err != nil {
		return "", wrapError(err, fmt.Sprintf("failed to read remote %q", name))
	}
	urls := rm.Config().URLs
	if len(urls) == 0 {
		return "", wrapError(gogit.ErrMissingURL, fmt.Sprintf("remote %q has no url", name))
	}
	return urls[0], nil
}

// AddRemote configures a new remote. A remote that already exists is
// CodeAlreadyExists; its URL is not changed.
func (r *Repository) AddRemote(name, url string) error {
	if _, err := r.repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}}); err != nil {
		return wrapError(err, fmt.Sprintf("failed to add remote %q", name))
	}
	return nil
}

// ops falls back to go-git for repositories built without options.
func (r *Repository) ops() RemoteOperations {
	if r.remoteOps == nil {
		return defaultRemote
	}
	return r.remoteOps
}
