package models

import "time"

// JobStatus represents the lifecycle state of a scraping job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal returns true once the job has finished its current run
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ScrapingJob tracks one bill-retrieval attempt for a property/provider
// pair. Status transitions are one-directional for a given run
// (pending -> in_progress -> completed|failed); a manual retry re-enters
// in_progress as a fresh run attached to the same job identity. Exactly one
// of ErrorMessage/Result is set once the status leaves in_progress.
type ScrapingJob struct {
	ID           string        `json:"id"`
	ProviderID   string        `json:"provider_id"`
	PropertyID   string        `json:"property_id"`
	Status       JobStatus     `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Result       *ScrapeResult `json:"result,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	LastRunAt    *time.Time    `json:"last_run_at,omitempty"`
}
