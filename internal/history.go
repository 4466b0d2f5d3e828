package internal

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/starford/frontdate/internal/ledger"
)

// History writes every recorded outcome for path to w, newest first.
// Outcomes are stored under absolute paths, so path may be given relative
// to the current directory.
func History(cfg *Config, path string, w io.Writer) error {
	db, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("history: resolve %s: %w", path, err)
	}
	rows, err := db.History(abs)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "no recorded runs for %s\n", abs)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tLAST EDIT\tDATE\tUPDATED\tNOTES")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			dash(r.LastEdit),
			transition(r.OldDate, r.NewDate),
			transition(r.OldUpdated, r.NewUpdated),
			notes(r))
	}
	return tw.Flush()
}

// LastRun writes the most recent recorded run and its outcomes to w.
func LastRun(cfg *Config, w io.Writer) error {
	db, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.LastRun()
	if err != nil {
		return err
	}
	if run == nil {
		_, err := fmt.Fprintln(w, "no recorded runs")
		return err
	}
	rows, err := db.Outcomes(run.ID)
	if err != nil {
		return err
	}

	mode := "write"
	if run.Check {
		mode = "check"
	}
	fmt.Fprintf(w, "run %d (%s) %s, %s mode, took %s\n",
		run.ID, run.UUID,
		run.StartedAt.Local().Format(time.DateTime),
		mode,
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "roots: %s\n", strings.Join(run.Roots, ", "))
	fmt.Fprintf(w, "files: %d, skipped: %d\n\n", len(rows), run.Skipped)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tSTATUS\tLAST EDIT\tDATE\tUPDATED\tNOTES")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Path,
			r.Status,
			dash(r.LastEdit),
			transition(r.OldDate, r.NewDate),
			transition(r.OldUpdated, r.NewUpdated),
			notes(r))
	}
	return tw.Flush()
}

func openLedger(cfg *Config) (*ledger.DB, error) {
	if !cfg.Ledger.Enabled() {
		return nil, fmt.Errorf("history: ledger is disabled, set ledger.path or --ledger")
	}
	return ledger.Open(cfg.Ledger.Path)
}

func notes(r ledger.OutcomeRow) string {
	if r.Error != "" {
		return r.Error
	}
	return strings.Join(r.Warnings, "; ")
}

func transition(from, to string) string {
	if from == to {
		return dash(to)
	}
	return dash(from) + " -> " + dash(to)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
