package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"rentora-utils/internal/captcha"
	"rentora-utils/internal/config"
	"rentora-utils/internal/scraper/browser"
	"rentora-utils/internal/scraper/providers"
	"rentora-utils/internal/scraper/workers"
	"rentora-utils/pkg/models"
	"rentora-utils/pkg/utils"
)

// ErrConcurrentRun is returned when a run is requested for a provider and
// property pair that already has a pending or in_progress job. Portals lock
// accounts after repeated logins, so duplicate runs are refused outright.
var ErrConcurrentRun = errors.New("a scraping run is already active for this provider and property")

// UnsupportedProviderError is returned when no registered scraper matches the
// requested provider id or alias.
type UnsupportedProviderError struct {
	ProviderID string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider: %s", e.ProviderID)
}

// ScrapeDriver runs a full scraping lifecycle against a provider portal.
// *providers.Driver is the production implementation.
type ScrapeDriver interface {
	Scrape(ctx context.Context, scraper providers.ProviderScraper, creds models.Credentials) (*models.ScrapeResult, error)
}

// Notifier is told about jobs reaching a terminal state. Delivery failures
// are logged and never affect the job outcome.
type Notifier interface {
	NotifyJobFinished(ctx context.Context, job *models.ScrapingJob) error
}

// Runner owns the scraping job state machine. Trigger and Retry schedule
// runs on the worker pool; the run itself moves the job through
// pending -> in_progress -> completed|failed and persists the outcome.
// Failed jobs stay failed until a caller retries them explicitly.
type Runner struct {
	config      *config.Config
	store       Store
	registry    *providers.Registry
	driver      ScrapeDriver
	credentials CredentialService
	pool        *workers.Pool
	notifier    Notifier
	logger      *logrus.Logger
}

// NewRunner creates a job runner
func NewRunner(cfg *config.Config, store Store, registry *providers.Registry, driver ScrapeDriver, credentials CredentialService, pool *workers.Pool) *Runner {
	return &Runner{
		config:      cfg,
		store:       store,
		registry:    registry,
		driver:      driver,
		credentials: credentials,
		pool:        pool,
		logger:      utils.GetLogger(),
	}
}

// SetNotifier registers an optional webhook notifier for finished jobs
func (r *Runner) SetNotifier(n Notifier) {
	r.notifier = n
}

// notifyFinished reports a terminal job to the notifier, if one is set
func (r *Runner) notifyFinished(job *models.ScrapingJob) {
	if r.notifier == nil || job == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.notifier.NotifyJobFinished(ctx, job); err != nil {
		r.logger.WithError(err).WithField("job_id", job.ID).Warn("Job callback delivery failed")
	}
}

// Trigger creates a new pending job and schedules it. Inline credentials
// override the credential service for this run only; they are never stored.
func (r *Runner) Trigger(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapingJob, error) {
	scraper, ok := r.registry.Resolve(req.ProviderID)
	if !ok {
		return nil, &UnsupportedProviderError{ProviderID: req.ProviderID}
	}

	active, err := r.store.FindActive(ctx, scraper.ID(), req.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active jobs: %w", err)
	}
	if active != nil {
		return nil, ErrConcurrentRun
	}

	creds, err := r.resolveCredentials(ctx, req)
	if err != nil {
		return nil, err
	}

	job, err := r.store.Create(ctx, scraper.ID(), req.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if err := r.schedule(job, scraper, creds); err != nil {
		return nil, err
	}

	return job, nil
}

// Retry re-runs a terminal job. Running or queued jobs are refused; retry is
// a manual action and never happens automatically.
func (r *Runner) Retry(ctx context.Context, jobID string, req *models.ScrapeRequest) (*models.ScrapingJob, error) {
	job, err := r.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !job.Status.IsTerminal() {
		return nil, ErrConcurrentRun
	}

	// A newer job may own the identity even though this one is terminal
	active, err := r.store.FindActive(ctx, job.ProviderID, job.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active jobs: %w", err)
	}
	if active != nil {
		return nil, ErrConcurrentRun
	}

	scraper, ok := r.registry.Resolve(job.ProviderID)
	if !ok {
		return nil, &UnsupportedProviderError{ProviderID: job.ProviderID}
	}

	lookup := &models.ScrapeRequest{
		ProviderID: job.ProviderID,
		PropertyID: job.PropertyID,
	}
	if req != nil {
		lookup.Username = req.Username
		lookup.Password = req.Password
	}
	creds, err := r.resolveCredentials(ctx, lookup)
	if err != nil {
		return nil, err
	}

	// Mark the job queued before scheduling so a second retry arriving in
	// the same window sees it as active.
	job, err = r.store.Update(ctx, jobID, JobUpdate{Status: models.JobStatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to reset job: %w", err)
	}

	if err := r.schedule(job, scraper, creds); err != nil {
		return nil, err
	}

	return job, nil
}

// GetJob returns the current job record
func (r *Runner) GetJob(ctx context.Context, jobID string) (*models.ScrapingJob, error) {
	return r.store.Get(ctx, jobID)
}

func (r *Runner) resolveCredentials(ctx context.Context, req *models.ScrapeRequest) (models.Credentials, error) {
	if req.Username != "" && req.Password != "" {
		return models.Credentials{Username: req.Username, Password: req.Password}, nil
	}
	return r.credentials.GetCredentials(ctx, req.PropertyID)
}

// schedule hands the run to the worker pool. Credentials are captured by the
// task closure and released when the run finishes; nothing persists them.
func (r *Runner) schedule(job *models.ScrapingJob, scraper providers.ProviderScraper, creds models.Credentials) error {
	jobID := job.ID
	task := workers.Task{
		JobID:      jobID,
		ProviderID: job.ProviderID,
		Run: func(ctx context.Context) error {
			return r.run(ctx, jobID, scraper, creds)
		},
	}

	if err := r.pool.Submit(task); err != nil {
		// The job record exists but will never run; mark it failed so the
		// identity does not stay locked.
		_, updErr := r.store.Update(context.Background(), jobID, JobUpdate{
			Status:       models.JobStatusFailed,
			ErrorMessage: "job could not be scheduled: " + err.Error(),
		})
		if updErr != nil {
			r.logger.WithError(updErr).WithField("job_id", jobID).Error("Failed to mark unscheduled job as failed")
		}
		return err
	}

	return nil
}

// run executes one scraping attempt and persists the outcome
func (r *Runner) run(ctx context.Context, jobID string, scraper providers.ProviderScraper, creds models.Credentials) error {
	logger := r.logger.WithFields(logrus.Fields{
		"job_id":   jobID,
		"provider": scraper.ID(),
	})

	if _, err := r.store.Update(ctx, jobID, JobUpdate{
		Status: models.JobStatusInProgress,
	}); err != nil {
		logger.WithError(err).Error("Failed to mark job in progress")
		return err
	}

	logger.Info("Scraping run started")

	result, err := r.driver.Scrape(ctx, scraper, creds)
	if err != nil {
		message := utils.ScrubSecrets(stageMessage(err), creds.Username, creds.Password)
		failed, updErr := r.store.Update(context.Background(), jobID, JobUpdate{
			Status:       models.JobStatusFailed,
			ErrorMessage: message,
		})
		if updErr != nil {
			logger.WithError(updErr).Error("Failed to persist job failure")
		}
		logger.WithField("reason", message).Warn("Scraping run failed")
		r.notifyFinished(failed)
		return err
	}

	completed, updErr := r.store.Update(context.Background(), jobID, JobUpdate{
		Status: models.JobStatusCompleted,
		Result: result,
	})
	if updErr != nil {
		logger.WithError(updErr).Error("Failed to persist job result")
		return updErr
	}
	r.notifyFinished(completed)

	logger.WithFields(logrus.Fields{
		"bills":        len(result.Bills),
		"skipped_rows": result.SkippedRows,
		"duration":     result.Duration,
	}).Info("Scraping run completed")

	return nil
}

// stageMessage maps a run failure onto a short operator-facing message that
// names the stage without leaking page content or request payloads.
func stageMessage(err error) string {
	var timeout *captcha.TimeoutError
	if errors.As(err, &timeout) {
		return "CAPTCHA solving timed out"
	}

	var submission *captcha.SubmissionError
	if errors.As(err, &submission) {
		return "CAPTCHA solving failed: " + submission.Reason
	}

	var solve *captcha.SolveError
	if errors.As(err, &solve) {
		return "CAPTCHA solving failed: " + solve.Reason
	}

	var rejected *providers.LoginRejectedError
	if errors.As(err, &rejected) {
		return "login rejected by provider"
	}

	var automation *browser.AutomationError
	if errors.As(err, &automation) {
		return fmt.Sprintf("provider page layout not recognized (%s)", automation.Step)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "scraping run timed out"
	}

	return "scraping failed: " + err.Error()
}
