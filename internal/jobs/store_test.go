package jobs

import (
	"context"
	"errors"
	"testing"

	"rentora-utils/pkg/models"
)

func TestInMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	job, err := store.Create(ctx, "engie-romania", "prop-1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if job.ID == "" {
		t.Fatal("Create returned a job without an id")
	}
	if job.Status != models.JobStatusPending {
		t.Errorf("new job status = %q, want pending", job.Status)
	}

	job, err = store.Update(ctx, job.ID, JobUpdate{Status: models.JobStatusInProgress})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if job.Status != models.JobStatusInProgress {
		t.Errorf("status = %q, want in_progress", job.Status)
	}
	if job.LastRunAt == nil {
		t.Fatal("transition did not stamp last run at")
	}
	started := *job.LastRunAt

	result := &models.ScrapeResult{
		ProviderID: "engie-romania",
		Bills:      []models.Bill{{Amount: 100, Currency: "RON", DueDate: "2024-12-16"}},
	}
	job, err = store.Update(ctx, job.ID, JobUpdate{
		Status: models.JobStatusCompleted,
		Result: result,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if job.Status != models.JobStatusCompleted {
		t.Errorf("status = %q, want completed", job.Status)
	}
	if job.Result == nil || len(job.Result.Bills) != 1 {
		t.Fatal("completed job is missing its result")
	}
	if job.LastRunAt == nil || job.LastRunAt.Before(started) {
		t.Errorf("terminal transition did not advance last run at: %v", job.LastRunAt)
	}
}

func TestStoreErrorAndResultAreExclusive(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	job, _ := store.Create(ctx, "eon-romania", "prop-2")

	// Fail the job, then retry and complete it: the error message must not
	// survive into the completed record.
	job, err := store.Update(ctx, job.ID, JobUpdate{
		Status:       models.JobStatusFailed,
		ErrorMessage: "login rejected by provider",
	})
	if err != nil {
		t.Fatal(err)
	}
	if job.ErrorMessage == "" || job.Result != nil {
		t.Fatalf("failed job: message=%q result=%v", job.ErrorMessage, job.Result)
	}

	job, err = store.Update(ctx, job.ID, JobUpdate{Status: models.JobStatusPending})
	if err != nil {
		t.Fatal(err)
	}
	if job.ErrorMessage != "" || job.Result != nil {
		t.Error("re-queued job still carries a previous outcome")
	}

	job, err = store.Update(ctx, job.ID, JobUpdate{
		Status: models.JobStatusCompleted,
		Result: &models.ScrapeResult{ProviderID: "eon-romania"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if job.ErrorMessage != "" {
		t.Errorf("completed job carries error message %q", job.ErrorMessage)
	}
	if job.Result == nil {
		t.Error("completed job is missing its result")
	}
}

func TestStoreFindActive(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	job, _ := store.Create(ctx, "engie-romania", "prop-1")

	active, err := store.FindActive(ctx, "engie-romania", "prop-1")
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.ID != job.ID {
		t.Fatal("pending job not reported as active")
	}

	// A different property is an independent identity
	other, err := store.FindActive(ctx, "engie-romania", "prop-9")
	if err != nil {
		t.Fatal(err)
	}
	if other != nil {
		t.Error("FindActive matched a different property")
	}

	if _, err := store.Update(ctx, job.ID, JobUpdate{
		Status:       models.JobStatusFailed,
		ErrorMessage: "scraping failed",
	}); err != nil {
		t.Fatal(err)
	}

	active, err = store.FindActive(ctx, "engie-romania", "prop-1")
	if err != nil {
		t.Fatal(err)
	}
	if active != nil {
		t.Error("failed job still reported as active")
	}
}

func TestStoreGetUnknownJob(t *testing.T) {
	store := NewInMemoryStore()

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("error = %v, want ErrJobNotFound", err)
	}
	if _, err := store.Update(context.Background(), "nope", JobUpdate{Status: models.JobStatusPending}); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("error = %v, want ErrJobNotFound", err)
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	job, _ := store.Create(ctx, "engie-romania", "prop-1")
	job.Status = models.JobStatusCompleted // mutate the returned copy

	fresh, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Status != models.JobStatusPending {
		t.Error("mutating a returned job leaked into the store")
	}
}
