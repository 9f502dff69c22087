package jobs

import (
	"context"
	"errors"
	"time"

	"rentora-utils/pkg/models"
)

// ErrJobNotFound is returned when no job exists for the given id
var ErrJobNotFound = errors.New("job not found")

// JobUpdate carries one state transition. Status is required; exactly one of
// ErrorMessage/Result may be set, matching the job invariant that a finished
// run has either an error or a result, never both.
type JobUpdate struct {
	Status       models.JobStatus
	ErrorMessage string
	Result       *models.ScrapeResult
}

// Store persists scraping job records. The core only mutates jobs through
// transitions and never reads them back mid-run; Get serves the status API
// and the concurrent-run precondition check.
type Store interface {
	// Create inserts a new job in the pending state
	Create(ctx context.Context, providerID, propertyID string) (*models.ScrapingJob, error)

	// Get returns the job with the given id
	Get(ctx context.Context, id string) (*models.ScrapingJob, error)

	// FindActive returns the pending or in_progress job for the identity,
	// or nil when the identity is idle
	FindActive(ctx context.Context, providerID, propertyID string) (*models.ScrapingJob, error)

	// Update applies a state transition to the job
	Update(ctx context.Context, id string, update JobUpdate) (*models.ScrapingJob, error)
}

// applyUpdate folds a transition into a job record, enforcing the
// error-XOR-result invariant. Every transition stamps LastRunAt.
func applyUpdate(job *models.ScrapingJob, update JobUpdate) {
	now := time.Now()

	job.Status = update.Status
	job.UpdatedAt = now
	job.LastRunAt = &now

	switch {
	case update.Result != nil:
		job.Result = update.Result
		job.ErrorMessage = ""
	case update.ErrorMessage != "":
		job.ErrorMessage = update.ErrorMessage
		job.Result = nil
	default:
		// Re-entering a run: clear the previous outcome
		if update.Status == models.JobStatusPending || update.Status == models.JobStatusInProgress {
			job.ErrorMessage = ""
			job.Result = nil
		}
	}
}

// isActive reports whether the job currently owns its identity: a queued or
// running job blocks new runs for the same provider/property pair.
func isActive(job *models.ScrapingJob) bool {
	return job.Status == models.JobStatusPending || job.Status == models.JobStatusInProgress
}
