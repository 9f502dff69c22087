package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"rentora-utils/internal/scraper/workers"
	"rentora-utils/pkg/utils"
)

// WorkerStatsHandler exposes worker pool throughput counters
func WorkerStatsHandler(pool *workers.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats := pool.GetStats()

		return c.JSON(http.StatusOK, map[string]interface{}{
			"running":                 pool.IsRunning(),
			"jobs_queued":             stats.JobsQueued,
			"jobs_processed":          stats.JobsProcessed,
			"jobs_succeeded":          stats.JobsSucceeded,
			"jobs_failed":             stats.JobsFailed,
			"average_processing_time": utils.FormatDuration(stats.AverageProcessingTime),
			"timestamp":               time.Now(),
		})
	}
}
