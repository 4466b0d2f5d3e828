package internal

import (
	"io"
	"time"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	roots  []string
	now    func() time.Time
	output io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithRoots sets the files and directories to process.
func WithRoots(roots ...string) Option {
	return func(a *application) {
		a.roots = roots
	}
}

// WithClock sets the source of "today".
func WithClock(now func() time.Time) Option {
	return func(a *application) {
		a.now = now
	}
}

// WithOutput sets where log output is written. Defaults to os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.output = w
	}
}
