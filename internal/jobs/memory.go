package jobs

import (
	"context"
	"sync"
	"time"

	"rentora-utils/pkg/models"
	"rentora-utils/pkg/utils"
)

// InMemoryStore keeps job records in a map. It is the default backend for
// single-instance deployments and tests; the Redis backend survives
// restarts.
type InMemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.ScrapingJob
}

// NewInMemoryStore creates an empty in-memory job store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		jobs: make(map[string]*models.ScrapingJob),
	}
}

// Create inserts a new job in the pending state
func (s *InMemoryStore) Create(ctx context.Context, providerID, propertyID string) (*models.ScrapingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	job := &models.ScrapingJob{
		ID:         utils.GenerateRequestID(),
		ProviderID: providerID,
		PropertyID: propertyID,
		Status:     models.JobStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.jobs[job.ID] = job
	return copyJob(job), nil
}

// Get returns the job with the given id
func (s *InMemoryStore) Get(ctx context.Context, id string) (*models.ScrapingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, ErrJobNotFound
	}

	return copyJob(job), nil
}

// FindActive returns the pending or in_progress job for the identity
func (s *InMemoryStore) FindActive(ctx context.Context, providerID, propertyID string) (*models.ScrapingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, job := range s.jobs {
		if job.ProviderID == providerID && job.PropertyID == propertyID && isActive(job) {
			return copyJob(job), nil
		}
	}

	return nil, nil
}

// Update applies a state transition to the job
func (s *InMemoryStore) Update(ctx context.Context, id string, update JobUpdate) (*models.ScrapingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, ErrJobNotFound
	}

	applyUpdate(job, update)
	return copyJob(job), nil
}

// copyJob shields callers from later mutations of the stored record
func copyJob(job *models.ScrapingJob) *models.ScrapingJob {
	c := *job
	if job.LastRunAt != nil {
		t := *job.LastRunAt
		c.LastRunAt = &t
	}
	if job.Result != nil {
		r := *job.Result
		r.Bills = append([]models.Bill(nil), job.Result.Bills...)
		c.Result = &r
	}
	return &c
}
