// Package git is a thin wrapper around go-git covering what a build worker
// needs from a repository: cloning it into a directory, refreshing it from
// its origin, inspecting the origin URL, listing remote references and
// checking out an exact revision.
//
// It deliberately stays small. Anything beyond these operations is reached
// through Underlying.
//
// # Filesystems
//
// Every operation goes through a go-billy filesystem. The default is the OS
// filesystem rooted at "/", so paths are absolute. Tests may pass memfs or a
// temporary osfs with WithFilesystem:
//
//	fs := memfs.New()
//	repo, err := git.Init("/repo", git.WithFilesystem(fs))
//
// Repositories keep their metadata in path/.git next to the working tree,
// the same layout the git command line produces, so a tree cloned here can
// be used by git or make afterwards.
//
// # Opening and cloning
//
// Open fails with CodeNotFound when path holds no repository. Clone creates
// the directory if needed and fetches all branches and tags:
//
//	repo, err := git.Clone(ctx, "/var/cache/src/web", git.CloneOptions{
//	    URL:  "https://git.example.com/scm/team/web.git",
//	    Auth: git.TokenAuth(token),
//	})
//
//	repo, err = git.Open("/var/cache/src/web")
//
// # Remotes
//
// Network-facing work (clone, fetch, ls-remote) is routed through the
// RemoteOperations interface so callers can substitute failures in tests.
//
//	url, err := repo.RemoteURL(git.DefaultRemote)
//	err = repo.Fetch(ctx, git.FetchOptions{Prune: true, Tags: true})
//
// Fetch always force-updates refs/remotes/origin/* so a force-pushed branch
// never leaves a stale remote-tracking reference behind. ListRemote reads
// the references of a remote without any local repository, like
// git ls-remote:
//
//	refs, err := git.ListRemote(ctx, url, auth)
//
// # Revisions
//
// ResolveRevision accepts a full commit hash, a branch of origin, a tag, a
// local branch or a go-git revision expression. Annotated tags resolve to
// the commit they point at. Checkout moves the working tree to the resolved
// commit with a detached HEAD, discarding local modifications:
//
//	sha, err := repo.Checkout("release/1.2")
//	err = repo.Clean()
//
// # Authentication
//
// Auth values come from BasicAuth, TokenAuth, SSHKeyAuth or SSHKeyFile. A
// nil Auth is anonymous. TokenAuth of an empty token returns nil, so a
// missing token degrades to anonymous access instead of a failed login.
//
// # Logging credentials
//
// Fetch URLs may embed tokens. RedactURL masks the password before a URL
// reaches a log line or an error context:
//
//	log.Infof("cloning %s", git.RedactURL(url))
//
// # Errors
//
// Errors are platform errors (see the errors package). go-git sentinels are
// mapped to codes: a missing repository or reference is CodeNotFound, bad
// credentials CodeUnauthorized, an expired context CodeTimeout and other
// network failures CodeNetwork. The original go-git error stays reachable
// through errors.Is:
//
//	if errors.Is(err, transport.ErrAuthenticationRequired) {
//	    // prompt for credentials
//	}
//
// # Escape hatch
//
// Underlying returns the go-git repository for anything not wrapped here.
package git
