package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/starford/frontdate/internal/caldate"
)

// Exec runs `git log -1 --format=%cs` for each file. Calls are independent
// and safe to run in parallel.
type Exec struct {
	binary string
}

// NewExec creates a Provider that shells out to the given git binary.
func NewExec(binary string) *Exec {
	return &Exec{binary: binary}
}

// LastEdit implements Provider. A non-zero exit status or any output on
// stderr is an error.
func (e *Exec) LastEdit(ctx context.Context, path string) (caldate.Date, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return caldate.Date{}, fmt.Errorf("vcs: resolve %s: %w", path, err)
	}

	cmd := exec.CommandContext(ctx, e.binary, "log", "-1", "--format=%cs", "--", filepath.Base(abs))
	cmd.Dir = filepath.Dir(abs)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		return caldate.Date{}, fmt.Errorf("vcs: git log %s: %w: %s", path, runErr, strings.TrimSpace(stderr.String()))
	}
	if stderr.Len() > 0 {
		return caldate.Date{}, fmt.Errorf("vcs: git log %s: unexpected stderr: %s", path, strings.TrimSpace(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return caldate.Date{}, nil
	}
	d, err := caldate.Parse(out)
	if err != nil {
		return caldate.Date{}, fmt.Errorf("vcs: git log %s: %w", path, err)
	}
	return d, nil
}
