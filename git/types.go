package git

import (
	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// DefaultRemote is the remote name used when none is given.
const DefaultRemote = "origin"

// Repository is an opened repository on a billy filesystem.
type Repository struct {
	path      string
	repo      *gogit.Repository
	fs        billy.Filesystem
	remoteOps RemoteOperations
}

// Reference is a named pointer to a commit as advertised by a remote or
// stored locally.
type Reference struct {
	// Name is the full reference name, e.g. refs/heads/main.
	Name string
	// Hash is the hex commit hash.
	Hash string
}

// Remote describes a configured remote.
type Remote struct {
	Name string
	URLs []string
}

// Auth is any go-git transport authentication method. Use BasicAuth,
// TokenAuth or SSHKeyAuth to build one.
type Auth interface {
	transport.AuthMethod
}

// CloneOptions configures Clone.
type CloneOptions struct {
	// URL is the address recorded as the origin remote.
	URL string
	// Auth is optional.
	Auth Auth
	// Depth limits history. Zero clones everything.
	Depth int
	// Branch checks out a specific branch instead of the remote HEAD.
	Branch string
	// NoCheckout leaves the working tree empty.
	NoCheckout bool
}

// FetchOptions configures Fetch.
type FetchOptions struct {
	// RemoteName defaults to origin.
	RemoteName string
	Auth       Auth
	Depth      int
	// Prune deletes remote-tracking references that vanished upstream.
	Prune bool
	// Tags fetches every tag as well as the branches.
	Tags bool
}

// RepositoryOption configures how a repository is opened or created.
type RepositoryOption func(*repositoryOptions)

type repositoryOptions struct {
	fs        billy.Filesystem
	remoteOps RemoteOperations
	bare      bool
}

func newRepositoryOptions(opts []RepositoryOption) *repositoryOptions {
	o := &repositoryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = defaultFilesystem()
	}
	if o.remoteOps == nil {
		o.remoteOps = defaultRemote
	}
	return o
}

// WithFilesystem sets the filesystem paths are resolved against.
func WithFilesystem(fs billy.Filesystem) RepositoryOption {
	return func(o *repositoryOptions) {
		o.fs = fs
	}
}

// WithRemoteOperations replaces the network-facing implementation.
func WithRemoteOperations(ops RemoteOperations) RepositoryOption {
	return func(o *repositoryOptions) {
		o.remoteOps = ops
	}
}

// WithBare makes Init create a repository without a working tree.
func WithBare() RepositoryOption {
	return func(o *repositoryOptions) {
		o.bare = true
	}
}
