// Package testutil provides shared test helpers for content trees, git
// repositories and ledgers.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/starford/frontdate/internal/ledger"
	"github.com/starford/frontdate/internal/storage"
)

// TestLedger creates a temporary SQLite ledger that is automatically cleaned up.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	db, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestTree creates a temporary content directory holding files (relative
// path → content) and a storage.Provider rooted at it.
func TestTree(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// WriteFiles writes files (relative path → content) under dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// ReadFile returns the content of dir/rel.
func ReadFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, rel))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// InitRepo initializes a git repository in dir.
func InitRepo(t *testing.T, dir string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return repo
}

// Commit writes files into the repository worktree, stages them and commits
// with author and committer time when. It returns the new commit hash.
func Commit(t *testing.T, repo *git.Repository, when time.Time, files map[string]string) plumbing.Hash {
	t.Helper()
	return commit(t, repo, when, files, nil)
}

// Merge commits files on the current branch as a merge of HEAD and other.
func Merge(t *testing.T, repo *git.Repository, when time.Time, other plumbing.Hash, files map[string]string) plumbing.Hash {
	t.Helper()
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	return commit(t, repo, when, files, []plumbing.Hash{head.Hash(), other})
}

// Checkout switches the worktree to branch, creating it at HEAD when create
// is set.
func Checkout(t *testing.T, repo *git.Repository, branch string, create bool) {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
	}); err != nil {
		t.Fatalf("checkout %s: %v", branch, err)
	}
}

// CurrentBranch returns the short name of the branch HEAD points at.
func CurrentBranch(t *testing.T, repo *git.Repository) string {
	t.Helper()
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	return head.Name().Short()
}

func commit(t *testing.T, repo *git.Repository, when time.Time, files map[string]string, parents []plumbing.Hash) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	root := wt.Filesystem.Root()
	WriteFiles(t, root, files)
	for rel := range files {
		if _, err := wt.Add(filepath.ToSlash(rel)); err != nil {
			t.Fatalf("add %s: %v", rel, err)
		}
	}
	sig := &object.Signature{Name: "Test", Email: "test@example.com", When: when}
	h, err := wt.Commit("update "+when.Format(time.RFC3339), &git.CommitOptions{
		Author:    sig,
		Committer: sig,
		Parents:   parents,
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return h
}
