package git

import (
	"context"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

func defaultFilesystem() billy.Filesystem {
	return osfs.New("/")
}

// Init creates an empty repository at path. Unless WithBare is given the
// object store lives in path/.git and path is the working tree.
func Init(path string, opts ...RepositoryOption) (*Repository, error) {
	o := newRepositoryOptions(opts)

	if err := o.fs.MkdirAll(path, 0o755); err != nil {
		return nil, wrapError(err, "failed to create repository directory")
	}
	scoped, err := o.fs.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	if o.bare {
		repo, err := gogit.Init(newStorage(scoped), nil)
		if err != nil {
			return nil, wrapError(err, "failed to initialize bare repository")
		}
		return &Repository{path: path, repo: repo, fs: scoped, remoteOps: o.remoteOps}, nil
	}

	dotGit, err := scoped.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, wrapError(err, "failed to create .git filesystem")
	}
	repo, err := gogit.Init(newStorage(dotGit), scoped)
	if err != nil {
		return nil, wrapError(err, "failed to initialize repository")
	}
	return &Repository{path: path, repo: repo, fs: scoped, remoteOps: o.remoteOps}, nil
}

// Open opens the repository at path. A path containing a .git directory is
// opened with a working tree; anything else is opened as bare.
func Open(path string, opts ...RepositoryOption) (*Repository, error) {
	o := newRepositoryOptions(opts)

	scoped, err := o.fs.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	var repo *gogit.Repository
	if fi, statErr := scoped.Stat(gogit.GitDirName); statErr == nil && fi.IsDir() {
		dotGit, err := scoped.Chroot(gogit.GitDirName)
		if err != nil {
			return nil, wrapError(err, "failed to scope filesystem to .git")
		}
		repo, err = gogit.Open(newStorage(dotGit), scoped)
		if err != nil {
			return nil, wrapError(err, "failed to open repository")
		}
	} else {
		repo, err = gogit.Open(newStorage(scoped), nil)
		if err != nil {
			return nil, wrapError(err, "failed to open repository")
		}
	}

	return &Repository{path: path, repo: repo, fs: scoped, remoteOps: o.remoteOps}, nil
}

// Clone clones opts.URL into path. The directory must not already hold a
// repository.
func Clone(ctx context.Context, path string, opts CloneOptions, ropts ...RepositoryOption) (*Repository, error) {
	o := newRepositoryOptions(ropts)
	return o.remoteOps.Clone(ctx, o.fs, path, opts)
}

// Path returns the path the repository was opened at.
func (r *Repository) Path() string {
	return r.path
}

// Underlying returns the go-git repository.
func (r *Repository) Underlying() *gogit.Repository {
	return r.repo
}

// Filesystem returns the filesystem scoped to the repository root.
func (r *Repository) Filesystem() billy.Filesystem {
	return r.fs
}

func newStorage(fs billy.Filesystem) *filesystem.Storage {
	return filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
}
