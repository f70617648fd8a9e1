// Package testutil builds throwaway on-disk repositories for tests that need
// something to clone, fetch and list.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jmgilman/go/gitsource/git"
)

const (
	// TestAuthor is the author name of fixture commits.
	TestAuthor = "Test User"

	// TestEmail is the author email of fixture commits.
	TestEmail = "test@example.com"

	// DefaultBranch is the branch the first commit lands on.
	DefaultBranch = "master"
)

// Upstream is a non-bare repository standing in for a remote. Its Path can
// be used directly as a clone URL.
type Upstream struct {
	Path string
	repo *git.Repository
}

// NewUpstream initializes a repository at dir with one commit on
// DefaultBranch.
func NewUpstream(t *testing.T, dir string) *Upstream {
	t.Helper()

	repo, err := git.Init(dir)
	if err != nil {
		t.Fatalf("failed to init upstream: %v", err)
	}
	u := &Upstream{Path: dir, repo: repo}
	u.Commit(t, DefaultBranch, "README.md", "# "+filepath.Base(dir)+"\n")
	return u
}

// Commit writes content to file on branch, creating the branch from the
// current HEAD when needed, and returns the new commit hash.
func (u *Upstream) Commit(t *testing.T, branch, file, content string) string {
	t.Helper()

	r := u.repo.Underlying()
	wt, err := r.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	ref := plumbing.NewBranchReferenceName(branch)
	if head, err := r.Head(); err == nil && head.Name() != ref {
		_, exists := r.Reference(ref, false)
		if err := wt.Checkout(&gogit.CheckoutOptions{Branch: ref, Create: exists != nil, Force: true}); err != nil {
			t.Fatalf("failed to switch to %s: %v", branch, err)
		}
	}

	full := filepath.Join(u.Path, file)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", file, err)
	}
	if _, err := wt.Add(file); err != nil {
		t.Fatalf("failed to add %s: %v", file, err)
	}

	hash, err := wt.Commit("update "+file, &gogit.CommitOptions{
		Author: &object.Signature{Name: TestAuthor, Email: TestEmail, When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	// The very first commit creates HEAD's target branch implicitly. Point
	// HEAD at the requested branch so later calls find it.
	if head, err := r.Head(); err == nil && head.Name() != ref {
		if err := r.Storer.SetReference(plumbing.NewHashReference(ref, hash)); err != nil {
			t.Fatalf("failed to set %s: %v", branch, err)
		}
		if err := r.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, ref)); err != nil {
			t.Fatalf("failed to set HEAD: %v", err)
		}
	}

	return hash.String()
}

// Tag creates a lightweight tag at hash.
func (u *Upstream) Tag(t *testing.T, name, hash string) {
	t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), plumbing.NewHash(hash))
	if err := u.repo.Underlying().Storer.SetReference(ref); err != nil {
		t.Fatalf("failed to tag %s: %v", name, err)
	}
}

// BranchHead returns the commit branch points at.
func (u *Upstream) BranchHead(t *testing.T, branch string) string {
	t.Helper()
	ref, err := u.repo.Underlying().Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		t.Fatalf("failed to read %s: %v", branch, err)
	}
	return ref.Hash().String()
}
