// Package models defines the domain types for frontdate.
package models

import "time"

// FileMetadata is a lightweight description of a file returned by listings.
type FileMetadata struct {
	Path string `json:"path"`
}

// Status is the result of processing one content file.
type Status string

const (
	StatusChanged   Status = "changed"
	StatusUnchanged Status = "unchanged"
	// StatusPending marks a file that would change but was not written (check mode).
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// FileOutcome records what happened to one content file. Dates are
// YYYY-MM-DD strings, empty when absent.
type FileOutcome struct {
	Path       string   `json:"path"`
	Status     Status   `json:"status"`
	LastEdit   string   `json:"last_edit,omitempty"`
	OldDate    string   `json:"old_date,omitempty"`
	OldUpdated string   `json:"old_updated,omitempty"`
	NewDate    string   `json:"new_date,omitempty"`
	NewUpdated string   `json:"new_updated,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Skipped    int           `json:"skipped"`
	Outcomes   []FileOutcome `json:"outcomes"`
}

// Count returns the number of outcomes with status s.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
