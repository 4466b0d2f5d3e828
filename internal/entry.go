// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/starford/frontdate/internal/apperr"
	"github.com/starford/frontdate/internal/ledger"
	"github.com/starford/frontdate/internal/models"
	"github.com/starford/frontdate/internal/processor"
	"github.com/starford/frontdate/internal/vcs"
)

// Run reconciles the front matter dates of every content file under the
// configured roots.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts...)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := NewLogger(app.output, &cfg.App)
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.Any("roots", app.roots),
		slog.String("git_backend", cfg.Git.Backend),
		slog.Int("workers", cfg.Processing.Workers),
		slog.Bool("check", cfg.Processing.Check),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	provider, err := vcs.New(cfg.Git.Backend, cfg.Processing.Workers)
	if err != nil {
		return fmt.Errorf("init vcs: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proc := processor.New(provider, logger, processor.Options{
		Extension: cfg.Content.Extension,
		IndexName: cfg.Content.IndexName,
		Workers:   cfg.Processing.Workers,
		Check:     cfg.Processing.Check,
		Now:       app.now,
	})

	summary, runErr := proc.Run(ctx, app.roots)
	logSummary(logger, summary)

	if cfg.Ledger.Enabled() {
		if err := record(cfg, app.roots, summary); err != nil {
			logger.Warn("ledger update failed", slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		logger.Error("Application error", slog.String("error", runErr.Error()))
		return runErr
	}
	return outcomeError(summary, cfg.Processing.Check)
}

func newApplication(opts ...Option) *application {
	app := &application{
		roots:  []string{"."},
		now:    time.Now,
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(app)
	}
	if len(app.roots) == 0 {
		app.roots = []string{"."}
	}
	return app
}

// NewLogger builds the slog logger described by cfg.
func NewLogger(w io.Writer, cfg *ApplicationConfig) *slog.Logger {
	hopts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == processor.LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func logSummary(logger *slog.Logger, s *models.Summary) {
	if s == nil {
		return
	}
	logger.Info("Run finished",
		slog.String("run_id", s.RunID),
		slog.Int("processed", len(s.Outcomes)),
		slog.Int("changed", s.Count(models.StatusChanged)),
		slog.Int("pending", s.Count(models.StatusPending)),
		slog.Int("unchanged", s.Count(models.StatusUnchanged)),
		slog.Int("failed", s.Count(models.StatusFailed)),
		slog.Int("skipped", s.Skipped),
		slog.Duration("elapsed", s.FinishedAt.Sub(s.StartedAt)))
}

func record(cfg *Config, roots []string, s *models.Summary) error {
	db, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.RecordRun(roots, cfg.Processing.Check, s)
	return err
}

// outcomeError maps a finished run to the error that decides the exit status.
func outcomeError(s *models.Summary, check bool) error {
	var errs []error
	if s.Count(models.StatusFailed) > 0 {
		errs = append(errs, apperr.ErrFilesFailed)
	}
	if check && s.Count(models.StatusPending) > 0 {
		errs = append(errs, apperr.ErrChangesPending)
	}
	return errors.Join(errs...)
}
