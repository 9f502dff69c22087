package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"rentora-utils/internal/config"
	"rentora-utils/pkg/utils"
)

// Submission failure modes the API layer maps onto distinct responses
var (
	ErrQueueFull   = errors.New("job queue is full")
	ErrRateLimited = errors.New("rate limit exceeded for provider")
	ErrNotRunning  = errors.New("worker pool is not running")
)

// Task is one scraping run scheduled on the pool. Each task runs on exactly
// one worker goroutine; there is no internal parallelism inside a run.
type Task struct {
	JobID      string
	ProviderID string
	Run        func(ctx context.Context) error
}

// Pool runs scraping jobs on a fixed set of worker goroutines so unrelated
// jobs proceed in parallel without head-of-line blocking each other.
type Pool struct {
	config  *config.Config
	queue   chan Task
	limiter *ProviderLimiter
	logger  *logrus.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
	stats   *PoolStats
}

// PoolStats tracks worker pool statistics
type PoolStats struct {
	mu                    sync.RWMutex
	JobsQueued            int64
	JobsProcessed         int64
	JobsSucceeded         int64
	JobsFailed            int64
	TotalProcessingTime   time.Duration
	AverageProcessingTime time.Duration
}

// NewPool creates a worker pool sized from config
func NewPool(cfg *config.Config) *Pool {
	return &Pool{
		config:  cfg,
		queue:   make(chan Task, cfg.Workers.QueueSize),
		limiter: NewProviderLimiter(cfg),
		logger:  utils.GetLogger(),
		stats:   &PoolStats{},
	}
}

// Start starts the worker goroutines
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("worker pool is already running")
	}

	for i := 1; i <= p.config.Workers.PoolSize; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.running = true
	p.logger.WithField("workers", p.config.Workers.PoolSize).Info("Worker pool started")
	return nil
}

// Stop drains the queue and waits for in-flight runs to finish
func (p *Pool) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	close(p.queue)
	p.wg.Wait()
	p.limiter.Stop()

	p.logger.Info("Worker pool stopped")
	return nil
}

// Submit schedules a task. It never blocks: a full queue or a rate-limited
// provider is reported to the caller instead of queueing invisibly.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running {
		return ErrNotRunning
	}

	if !p.limiter.Allow(task.ProviderID) {
		return fmt.Errorf("%w: %s", ErrRateLimited, task.ProviderID)
	}

	select {
	case p.queue <- task:
	default:
		return ErrQueueFull
	}

	p.stats.mu.Lock()
	p.stats.JobsQueued++
	p.stats.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"job_id":   task.JobID,
		"provider": task.ProviderID,
	}).Info("Job submitted to queue")

	return nil
}

// IsRunning returns true if the worker pool is accepting tasks
func (p *Pool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// GetStats returns a snapshot of pool statistics
func (p *Pool) GetStats() PoolStats {
	p.stats.mu.RLock()
	defer p.stats.mu.RUnlock()

	stats := PoolStats{
		JobsQueued:          p.stats.JobsQueued,
		JobsProcessed:       p.stats.JobsProcessed,
		JobsSucceeded:       p.stats.JobsSucceeded,
		JobsFailed:          p.stats.JobsFailed,
		TotalProcessingTime: p.stats.TotalProcessingTime,
	}
	if stats.JobsProcessed > 0 {
		stats.AverageProcessingTime = stats.TotalProcessingTime / time.Duration(stats.JobsProcessed)
	}

	return stats
}

// worker processes tasks until the queue is closed
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.WithField("worker_id", id)
	logger.Debug("Worker started")

	for task := range p.queue {
		p.processTask(logger, task)
	}

	logger.Debug("Worker stopping")
}

// processTask runs one task with the configured per-run timeout
func (p *Pool) processTask(logger *logrus.Entry, task Task) {
	startTime := time.Now()

	logger.WithFields(logrus.Fields{
		"job_id":   task.JobID,
		"provider": task.ProviderID,
	}).Debug("Processing job")

	ctx, cancel := context.WithTimeout(context.Background(), p.config.Workers.Timeout)
	err := task.Run(ctx)
	cancel()

	processingTime := time.Since(startTime)

	p.stats.mu.Lock()
	p.stats.JobsProcessed++
	p.stats.TotalProcessingTime += processingTime
	if err != nil {
		p.stats.JobsFailed++
	} else {
		p.stats.JobsSucceeded++
	}
	p.stats.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"job_id":          task.JobID,
		"provider":        task.ProviderID,
		"processing_time": processingTime,
		"success":         err == nil,
	}).Info("Job completed")
}
