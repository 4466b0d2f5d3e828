package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/starford/frontdate/internal/caldate"
)

// GoGit reads history with go-git. A go-git Repository must not be used
// from several goroutines at once, so each worktree gets a pool of
// independently opened handles, at most parallel of them.
type GoGit struct {
	parallel int

	mu    sync.Mutex
	byDir map[string]*repoPool
	roots map[string]*repoPool
}

// NewGoGit creates a go-git backed Provider that runs up to parallel
// lookups per repository concurrently.
func NewGoGit(parallel int) *GoGit {
	if parallel < 1 {
		parallel = 1
	}
	return &GoGit{
		parallel: parallel,
		byDir:    make(map[string]*repoPool),
		roots:    make(map[string]*repoPool),
	}
}

// LastEdit implements Provider.
func (g *GoGit) LastEdit(ctx context.Context, path string) (caldate.Date, error) {
	if err := ctx.Err(); err != nil {
		return caldate.Date{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return caldate.Date{}, fmt.Errorf("vcs: resolve %s: %w", path, err)
	}
	pool, err := g.open(filepath.Dir(abs))
	if err != nil {
		return caldate.Date{}, err
	}
	rel, err := filepath.Rel(pool.root, abs)
	if err != nil {
		return caldate.Date{}, fmt.Errorf("vcs: relative path for %s: %w", path, err)
	}
	rel = filepath.ToSlash(rel)

	repo, err := pool.acquire(ctx)
	if err != nil {
		return caldate.Date{}, err
	}
	defer pool.release(repo)

	c, err := lastTouch(ctx, repo, rel)
	if err != nil {
		return caldate.Date{}, fmt.Errorf("vcs: git log %s: %w", rel, err)
	}
	if c == nil {
		return caldate.Date{}, nil
	}
	return caldate.FromTime(c.Committer.When), nil
}

func (g *GoGit) open(dir string) (*repoPool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.byDir[dir]; ok {
		return p, nil
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("vcs: open repository for %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("vcs: worktree for %s: %w", dir, err)
	}
	root := wt.Filesystem.Root()

	p, ok := g.roots[root]
	if !ok {
		p = newRepoPool(root, g.parallel, repo)
		g.roots[root] = p
	}
	g.byDir[dir] = p
	return p, nil
}

// lastTouch returns the newest commit reachable from HEAD that changed
// path, or nil if there is none. It follows git's default history
// simplification: a merge that keeps the file as in one of its parents is
// skipped and only that parent is followed; any other commit whose entry
// differs from every parent changed the file. Commits are visited newest
// committer time first.
func lastTouch(ctx context.Context, repo *git.Repository, path string) (*object.Commit, error) {
	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// No commits yet.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	start, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}

	queue := []*object.Commit{start}
	seen := map[plumbing.Hash]struct{}{start.Hash: {}}
	push := func(c *object.Commit) {
		if _, ok := seen[c.Hash]; ok {
			return
		}
		seen[c.Hash] = struct{}{}
		queue = append(queue, c)
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := popNewest(&queue)

		entry, err := entryHash(c, path)
		if err != nil {
			return nil, err
		}

		parents, err := parentCommits(repo, c)
		if err != nil {
			return nil, err
		}
		if len(parents) == 0 {
			if !entry.IsZero() {
				return c, nil
			}
			continue
		}

		var same *object.Commit
		for _, p := range parents {
			h, err := entryHash(p, path)
			if err != nil {
				return nil, err
			}
			if h == entry {
				same = p
				break
			}
		}
		if same == nil {
			return c, nil
		}
		push(same)
	}
	return nil, nil
}

func popNewest(queue *[]*object.Commit) *object.Commit {
	q := *queue
	best := 0
	for i := 1; i < len(q); i++ {
		if q[i].Committer.When.After(q[best].Committer.When) {
			best = i
		}
	}
	c := q[best]
	q[best] = q[len(q)-1]
	*queue = q[:len(q)-1]
	return c
}

func parentCommits(repo *git.Repository, c *object.Commit) ([]*object.Commit, error) {
	parents := make([]*object.Commit, 0, len(c.ParentHashes))
	for _, h := range c.ParentHashes {
		p, err := repo.CommitObject(h)
		if err != nil {
			return nil, fmt.Errorf("parent %s of %s: %w", h, c.Hash, err)
		}
		parents = append(parents, p)
	}
	return parents, nil
}

// entryHash returns the blob hash of path in c, or the zero hash if c does
// not contain it.
func entryHash(c *object.Commit, path string) (plumbing.Hash, error) {
	tree, err := c.Tree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("tree of %s: %w", c.Hash, err)
	}
	e, err := tree.FindEntry(path)
	if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("find %s in %s: %w", path, c.Hash, err)
	}
	return e.Hash, nil
}

// repoPool hands out repository handles for one worktree, opening new ones
// on demand up to a fixed limit.
type repoPool struct {
	root  string
	limit int

	mu     sync.Mutex
	opened int
	idle   chan *git.Repository
}

func newRepoPool(root string, limit int, first *git.Repository) *repoPool {
	p := &repoPool{root: root, limit: limit, opened: 1, idle: make(chan *git.Repository, limit)}
	p.idle <- first
	return p
}

func (p *repoPool) acquire(ctx context.Context) (*git.Repository, error) {
	select {
	case r := <-p.idle:
		return r, nil
	default:
	}

	p.mu.Lock()
	if p.opened < p.limit {
		p.opened++
		p.mu.Unlock()
		r, err := git.PlainOpen(p.root)
		if err != nil {
			p.mu.Lock()
			p.opened--
			p.mu.Unlock()
			return nil, fmt.Errorf("vcs: open repository %s: %w", p.root, err)
		}
		return r, nil
	}
	p.mu.Unlock()

	select {
	case r := <-p.idle:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *repoPool) release(r *git.Repository) {
	p.idle <- r
}

func (p *repoPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened
}
