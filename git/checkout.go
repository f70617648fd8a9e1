package git

import (
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Head returns the commit hash HEAD points at.
func (r *Repository) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", wrapError(err, "failed to read HEAD")
	}
	return ref.Hash().String(), nil
}

// ResolveRevision turns rev into a commit hash. rev may be a full hash, a
// branch of the origin remote, a tag, a local branch, or any revision
// expression go-git understands, tried in that order.
func (r *Repository) ResolveRevision(rev string) (string, error) {
	if plumbing.IsHash(rev) {
		h := plumbing.NewHash(rev)
		if _, err := r.repo.CommitObject(h); err != nil {
			return "", wrapError(err, fmt.Sprintf("commit %s is not present", rev))
		}
		return h.String(), nil
	}

	candidates := []plumbing.ReferenceName{
		plumbing.NewRemoteReferenceName(DefaultRemote, rev),
		plumbing.NewTagReferenceName(rev),
		plumbing.NewBranchReferenceName(rev),
	}
	for _, name := range candidates {
		ref, err := r.repo.Reference(name, true)
		if err != nil {
			continue
		}
		// Annotated tags point at a tag object, not a commit.
		if tag, err := r.repo.TagObject(ref.Hash()); err == nil {
			commit, err := tag.Commit()
			if err != nil {
				return "", wrapError(err, fmt.Sprintf("tag %s does not point at a commit", rev))
			}
			return commit.Hash.String(), nil
		}
		return ref.Hash().String(), nil
	}

	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", wrapError(err, fmt.Sprintf("failed to resolve %q", rev))
	}
	return h.String(), nil
}

// Checkout force-checks-out rev with a detached HEAD and returns the commit
// hash. Local modifications are discarded.
func (r *Repository) Checkout(rev string) (string, error) {
	hash, err := r.ResolveRevision(rev)
	if err != nil {
		return "", err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", wrapError(err, "failed to get worktree")
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{
		Hash:  plumbing.NewHash(hash),
		Force: true,
	}); err != nil {
		return "", wrapError(err, fmt.Sprintf("failed to check out %s", hash))
	}
	return hash, nil
}

// Clean removes untracked files and directories from the working tree.
func (r *Repository) Clean() error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return wrapError(err, "failed to get worktree")
	}
	if err := wt.Clean(&gogit.CleanOptions{Dir: true}); err != nil {
		return wrapError(err, "failed to clean worktree")
	}
	return nil
}
