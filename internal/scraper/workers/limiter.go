package workers

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"rentora-utils/internal/config"
	"rentora-utils/pkg/utils"
)

// ProviderLimiter rate-limits scrape runs per utility provider. Portals
// lock accounts on aggressive login activity, so the limit guards the
// provider, not the caller.
type ProviderLimiter struct {
	config        *config.Config
	limiters      map[string]*providerEntry
	mu            sync.Mutex
	logger        *logrus.Logger
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

type providerEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewProviderLimiter creates a limiter enforcing the configured runs-per-minute
func NewProviderLimiter(cfg *config.Config) *ProviderLimiter {
	pl := &ProviderLimiter{
		config:        cfg,
		limiters:      make(map[string]*providerEntry),
		logger:        utils.GetLogger(),
		cleanupTicker: time.NewTicker(5 * time.Minute),
		stopCleanup:   make(chan struct{}),
	}

	go pl.cleanupRoutine()

	return pl
}

// Allow checks if a scrape run against the given provider is allowed
func (pl *ProviderLimiter) Allow(providerID string) bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	providerID = strings.ToLower(providerID)
	entry := pl.getEntry(providerID)
	entry.lastSeen = time.Now()

	allowed := entry.limiter.Allow()
	if !allowed {
		pl.logger.WithField("provider", providerID).Debug("Run rejected by provider rate limiter")
	}

	return allowed
}

// getEntry gets or creates a rate limiter for a provider
func (pl *ProviderLimiter) getEntry(providerID string) *providerEntry {
	if entry, exists := pl.limiters[providerID]; exists {
		return entry
	}

	// Runs per minute converted to runs per second, small burst to let a
	// handful of properties behind one provider queue together
	rps := rate.Limit(float64(pl.config.Workers.RateLimit) / 60.0)
	entry := &providerEntry{
		limiter:  rate.NewLimiter(rps, 3),
		lastSeen: time.Now(),
	}

	pl.limiters[providerID] = entry

	pl.logger.WithFields(logrus.Fields{
		"provider": providerID,
		"rate":     rps,
	}).Debug("Created new provider rate limiter")

	return entry
}

// cleanupRoutine periodically drops limiters for providers not seen recently
func (pl *ProviderLimiter) cleanupRoutine() {
	for {
		select {
		case <-pl.cleanupTicker.C:
			pl.cleanup()
		case <-pl.stopCleanup:
			pl.cleanupTicker.Stop()
			return
		}
	}
}

func (pl *ProviderLimiter) cleanup() {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	cutoff := time.Now().Add(-30 * time.Minute)
	for providerID, entry := range pl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(pl.limiters, providerID)
		}
	}
}

// Stop stops the limiter's cleanup routine
func (pl *ProviderLimiter) Stop() {
	close(pl.stopCleanup)
}
