package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"rentora-utils/internal/config"
	"rentora-utils/pkg/models"
	"rentora-utils/pkg/utils"
)

// RedisStore persists job records as JSON blobs so job history and the
// concurrent-run guard survive process restarts. An identity key tracks the
// most recent job per provider/property pair for the FindActive check.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects a job store to Redis using the configured URL
func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	opts.DB = cfg.Redis.DB
	opts.DialTimeout = cfg.Redis.Timeout
	opts.ReadTimeout = cfg.Redis.Timeout
	opts.WriteTimeout = cfg.Redis.Timeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    cfg.Jobs.ResultTTL,
	}, nil
}

// Close releases the underlying connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Create inserts a new job in the pending state
func (s *RedisStore) Create(ctx context.Context, providerID, propertyID string) (*models.ScrapingJob, error) {
	now := time.Now()
	job := &models.ScrapingJob{
		ID:         utils.GenerateRequestID(),
		ProviderID: providerID,
		PropertyID: propertyID,
		Status:     models.JobStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.save(ctx, job); err != nil {
		return nil, err
	}

	// Point the identity at its newest job
	err := s.client.Set(ctx, s.identityKey(providerID, propertyID), job.ID, s.ttl).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to index job identity: %w", err)
	}

	return job, nil
}

// Get returns the job with the given id
func (s *RedisStore) Get(ctx context.Context, id string) (*models.ScrapingJob, error) {
	payload, err := s.client.Get(ctx, s.jobKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	var job models.ScrapingJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("failed to decode job record: %w", err)
	}

	return &job, nil
}

// FindActive returns the pending or in_progress job for the identity
func (s *RedisStore) FindActive(ctx context.Context, providerID, propertyID string) (*models.ScrapingJob, error) {
	jobID, err := s.client.Get(ctx, s.identityKey(providerID, propertyID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job identity: %w", err)
	}

	job, err := s.Get(ctx, jobID)
	if err == ErrJobNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !isActive(job) {
		return nil, nil
	}
	return job, nil
}

// Update applies a state transition to the job
func (s *RedisStore) Update(ctx context.Context, id string, update JobUpdate) (*models.ScrapingJob, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyUpdate(job, update)

	if err := s.save(ctx, job); err != nil {
		return nil, err
	}

	// A retried job re-acquires its identity; without this the identity key
	// keeps pointing at the newest-created job and FindActive misses the
	// re-queued one.
	if isActive(job) {
		err := s.client.Set(ctx, s.identityKey(job.ProviderID, job.PropertyID), job.ID, s.ttl).Err()
		if err != nil {
			return nil, fmt.Errorf("failed to index job identity: %w", err)
		}
	}

	return job, nil
}

func (s *RedisStore) save(ctx context.Context, job *models.ScrapingJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job record: %w", err)
	}

	if err := s.client.Set(ctx, s.jobKey(job.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save job record: %w", err)
	}

	return nil
}

func (s *RedisStore) jobKey(id string) string {
	return fmt.Sprintf("scrapejob:%s", id)
}

func (s *RedisStore) identityKey(providerID, propertyID string) string {
	return fmt.Sprintf("scrapejob:identity:%s:%s", providerID, propertyID)
}
