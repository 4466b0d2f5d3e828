// Package processor walks content roots and reconciles the front matter
// dates of every eligible file against its git history.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/frontdate/internal/caldate"
	"github.com/starford/frontdate/internal/models"
	"github.com/starford/frontdate/internal/reconcile"
	"github.com/starford/frontdate/internal/storage"
	"github.com/starford/frontdate/internal/vcs"
)

// LevelTrace is below slog.LevelDebug and carries per-file skip messages.
const LevelTrace = slog.Level(-8)

// Options controls a Processor.
type Options struct {
	// Extension selects content files, e.g. ".md".
	Extension string
	// IndexName is a base name that is never processed, e.g. "_index.md".
	IndexName string
	// Workers bounds the number of files processed concurrently.
	Workers int
	// Check reports pending changes without writing them.
	Check bool
	// Now returns the current time; read once per run.
	Now func() time.Time
}

// Processor reconciles content files.
type Processor struct {
	vcs    vcs.Provider
	logger *slog.Logger
	opts   Options
}

// New creates a Processor.
func New(provider vcs.Provider, logger *slog.Logger, opts Options) *Processor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{vcs: provider, logger: logger, opts: opts}
}

type job struct {
	store   storage.Provider
	path    string // relative to store
	abs     string // recorded in outcomes and the ledger
	display string // as reached from the root given on the command line
}

// Run processes every eligible file under roots. Roots may be files or
// directories. Per-file failures are reported in the Summary; the returned
// error is non-nil only when a root could not be listed or ctx was canceled.
func (p *Processor) Run(ctx context.Context, roots []string) (*models.Summary, error) {
	today := caldate.FromTime(p.opts.Now())
	summary := &models.Summary{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger := p.logger.With(slog.String("run_id", summary.RunID))
	logger.Debug("run started", slog.String("today", today.String()), slog.Int("roots", len(roots)))

	jobs, skipped, err := p.collect(logger, roots)
	summary.Skipped = skipped
	if err != nil {
		summary.FinishedAt = time.Now()
		return summary, err
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(p.opts.Workers)
	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		j := j
		g.Go(func() error {
			out := p.process(ctx, logger, j, today)
			mu.Lock()
			summary.Outcomes = append(summary.Outcomes, out)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	slices.SortFunc(summary.Outcomes, func(a, b models.FileOutcome) int {
		return strings.Compare(a.Path, b.Path)
	})

	summary.FinishedAt = time.Now()
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("processor: run interrupted: %w", err)
	}
	return summary, nil
}

// collect lists eligible files under every root.
func (p *Processor) collect(logger *slog.Logger, roots []string) ([]job, int, error) {
	var (
		jobs    []job
		skipped int
	)
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, skipped, fmt.Errorf("processor: stat %s: %w", root, err)
		}

		if !info.IsDir() {
			store, err := storage.NewFS(filepath.Dir(root))
			if err != nil {
				return nil, skipped, err
			}
			name := filepath.Base(root)
			if p.eligible(name) {
				abs, err := store.Abs(name)
				if err != nil {
					return nil, skipped, err
				}
				jobs = append(jobs, job{store: store, path: name, abs: abs, display: root})
			} else {
				logger.Log(context.Background(), LevelTrace, "skipped", slog.String("path", root))
				skipped++
			}
			continue
		}

		store, err := storage.NewFS(root)
		if err != nil {
			return nil, skipped, err
		}
		metas, err := store.List("")
		if err != nil {
			return nil, skipped, err
		}
		for _, m := range metas {
			display := filepath.Join(root, m.Path)
			if !p.eligible(m.Path) {
				logger.Log(context.Background(), LevelTrace, "skipped", slog.String("path", display))
				skipped++
				continue
			}
			abs, err := store.Abs(m.Path)
			if err != nil {
				return nil, skipped, err
			}
			jobs = append(jobs, job{store: store, path: m.Path, abs: abs, display: display})
		}
	}
	return jobs, skipped, nil
}

func (p *Processor) eligible(path string) bool {
	base := filepath.Base(path)
	return filepath.Ext(base) == p.opts.Extension && base != p.opts.IndexName
}

// process reconciles one file and returns its outcome. Errors never escape;
// they are logged and recorded in the outcome.
func (p *Processor) process(ctx context.Context, logger *slog.Logger, j job, today caldate.Date) models.FileOutcome {
	store, path := j.store, j.path
	out := models.FileOutcome{Path: j.abs}
	logger = logger.With(slog.String("path", j.display))

	fail := func(err error) models.FileOutcome {
		logger.Error("processing failed", slog.String("error", err.Error()))
		out.Status = models.StatusFailed
		out.Error = err.Error()
		return out
	}

	rec, err := Load(store, path)
	if err != nil {
		return fail(fmt.Errorf("processor: load %s: %w", path, err))
	}

	lastEdit, err := p.vcs.LastEdit(ctx, j.abs)
	if err != nil {
		return fail(fmt.Errorf("processor: last edit date: %w", err))
	}
	logger.Debug("last edit", slog.String("date", lastEdit.String()))

	in := reconcile.Input{
		LastEdit: lastEdit,
		Date:     rec.Value(reconcile.FieldDate),
		Updated:  rec.Value(reconcile.FieldUpdated),
		Today:    today,
	}
	out.LastEdit = lastEdit.String()
	out.OldDate = dateText(in.Date)
	out.OldUpdated = dateText(in.Updated)

	res := reconcile.Reconcile(in)
	for _, w := range res.Warnings {
		logger.Warn(w.Message(), slog.String("field", w.Field), slog.String("value", w.Value))
		out.Warnings = append(out.Warnings, w.Message())
	}
	out.NewDate = res.Date.String()
	out.NewUpdated = res.Updated.String()

	if !res.Changed {
		logger.Debug("unchanged")
		out.Status = models.StatusUnchanged
		return out
	}

	if err := rec.Apply(res); err != nil {
		return fail(err)
	}
	if p.opts.Check {
		logger.Info("needs update", slog.String("date", out.NewDate), slog.String("updated", out.NewUpdated))
		out.Status = models.StatusPending
		return out
	}
	if err := rec.Write(store); err != nil {
		return fail(fmt.Errorf("processor: write %s: %w", path, err))
	}
	logger.Info("processed", slog.String("date", out.NewDate), slog.String("updated", out.NewUpdated))
	out.Status = models.StatusChanged
	return out
}

func dateText(v reconcile.Value) string {
	if !v.Present() {
		return ""
	}
	if d, ok := v.Date(); ok {
		return d.String()
	}
	return v.String()
}
