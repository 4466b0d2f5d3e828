package ledger

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/frontdate/internal/models"
)

// RunRow represents a row in the runs table.
type RunRow struct {
	ID         int64
	UUID       string
	StartedAt  time.Time
	FinishedAt time.Time
	Roots      []string
	Check      bool
	Skipped    int
}

// OutcomeRow is one recorded file outcome together with its run.
type OutcomeRow struct {
	RunID     int64
	StartedAt time.Time
	models.FileOutcome
}

// RecordRun stores a run summary and all its outcomes in one transaction
// and returns the new run ID.
func (db *DB) RecordRun(roots []string, check bool, s *models.Summary) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	rootsJSON, _ := json.Marshal(roots)
	res, err := tx.Exec(`
		INSERT INTO runs (run_uuid, started_at, finished_at, roots, check_mode, skipped)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.RunID, s.StartedAt.UTC(), s.FinishedAt.UTC(), string(rootsJSON), check, s.Skipped)
	if err != nil {
		return 0, fmt.Errorf("ledger: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ledger: run id: %w", err)
	}

	if len(s.Outcomes) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO outcomes (run_id, path, status, last_edit, old_date, old_updated, new_date, new_updated, warnings, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return 0, fmt.Errorf("ledger: prepare outcome insert: %w", err)
		}
		defer stmt.Close()
		for _, o := range s.Outcomes {
			warnings := o.Warnings
			if warnings == nil {
				warnings = []string{}
			}
			warningsJSON, _ := json.Marshal(warnings)
			if _, err := stmt.Exec(runID, o.Path, string(o.Status), o.LastEdit, o.OldDate, o.OldUpdated,
				o.NewDate, o.NewUpdated, string(warningsJSON), o.Error); err != nil {
				return 0, fmt.Errorf("ledger: insert outcome: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ledger: commit: %w", err)
	}
	return runID, nil
}

// LastRun returns the most recent run, or nil if none was recorded.
func (db *DB) LastRun() (*RunRow, error) {
	var (
		r         RunRow
		rootsJSON string
	)
	err := db.conn.QueryRow(`
		SELECT id, run_uuid, started_at, finished_at, roots, check_mode, skipped
		FROM runs ORDER BY id DESC LIMIT 1
	`).Scan(&r.ID, &r.UUID, &r.StartedAt, &r.FinishedAt, &rootsJSON, &r.Check, &r.Skipped)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: last run: %w", err)
	}
	_ = json.Unmarshal([]byte(rootsJSON), &r.Roots)
	return &r, nil
}

// History returns every recorded outcome for path, newest first.
func (db *DB) History(path string) ([]OutcomeRow, error) {
	return db.outcomes("o.path = ?", path)
}

// Outcomes returns the outcomes recorded by one run, ordered by path.
func (db *DB) Outcomes(runID int64) ([]OutcomeRow, error) {
	return db.outcomes("o.run_id = ?", runID)
}

func (db *DB) outcomes(where string, arg any) ([]OutcomeRow, error) {
	rows, err := db.conn.Query(`
		SELECT o.run_id, r.started_at, o.path, o.status, o.last_edit, o.old_date, o.old_updated,
		       o.new_date, o.new_updated, o.warnings, o.error
		FROM outcomes o JOIN runs r ON r.id = o.run_id
		WHERE `+where+`
		ORDER BY o.run_id DESC, o.path
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("ledger: query outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var (
			row          OutcomeRow
			status       string
			warningsJSON string
		)
		if err := rows.Scan(&row.RunID, &row.StartedAt, &row.Path, &status, &row.LastEdit, &row.OldDate,
			&row.OldUpdated, &row.NewDate, &row.NewUpdated, &warningsJSON, &row.Error); err != nil {
			return nil, err
		}
		row.Status = models.Status(status)
		_ = json.Unmarshal([]byte(warningsJSON), &row.Warnings)
		out = append(out, row)
	}
	return out, rows.Err()
}
