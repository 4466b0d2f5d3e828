// Package vcs looks up the date of the last commit that touched a file.
package vcs

import (
	"context"
	"fmt"

	"github.com/starford/frontdate/internal/caldate"
)

// Backends.
const (
	BackendGoGit = "gogit"
	BackendExec  = "exec"
)

// Provider returns the committer date of the most recent commit touching
// path, or the zero Date if the file has never been committed.
type Provider interface {
	LastEdit(ctx context.Context, path string) (caldate.Date, error)
}

// New returns the Provider for the named backend. parallel bounds the
// number of concurrent lookups the go-git backend runs per repository.
func New(backend string, parallel int) (Provider, error) {
	switch backend {
	case BackendGoGit, "":
		return NewGoGit(parallel), nil
	case BackendExec:
		return NewExec("git"), nil
	default:
		return nil, fmt.Errorf("vcs: unknown backend %q", backend)
	}
}
