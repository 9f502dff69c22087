package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"rentora-utils/internal/config"
	"rentora-utils/internal/jobs"
	"rentora-utils/internal/scraper/workers"
	"rentora-utils/pkg/models"
	"rentora-utils/pkg/utils"
)

var validate = validator.New()

// ScrapeHandler accepts a bill scraping request and queues it. The response
// is a 202 with the job id; the caller polls the job endpoint for the result.
func ScrapeHandler(cfg *config.Config, runner *jobs.Runner) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := utils.LogWithRequestID(requestID)

		logger.Info("Scrape request received")

		var req models.ScrapeRequest
		if err := c.Bind(&req); err != nil {
			logger.WithError(err).Error("Failed to bind request")
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			logger.WithError(err).Error("Request validation failed")
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.WithField("provider", req.ProviderID).Info("Processing scrape request")

		job, err := runner.Trigger(c.Request().Context(), &req)
		if err != nil {
			return scrapeErrorResponse(c, requestID, err)
		}

		logger.WithField("job_id", job.ID).Info("Scrape job queued")

		return c.JSON(http.StatusAccepted, models.ScrapeAcceptedResponse{
			Success:   true,
			JobID:     job.ID,
			Status:    job.Status,
			Message:   "scraping job queued",
			Timestamp: time.Now(),
		})
	}
}

// RetryJobHandler re-runs a failed or completed job on demand
func RetryJobHandler(cfg *config.Config, runner *jobs.Runner) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := utils.LogWithRequestID(requestID)

		jobID := c.Param("id")
		logger.WithField("job_id", jobID).Info("Job retry requested")

		// Inline credentials are optional on retry
		var req models.ScrapeRequest
		if c.Request().ContentLength > 0 {
			if err := c.Bind(&req); err != nil {
				return c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Error:     "invalid_request",
					Message:   "Invalid request format",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}
		}

		job, err := runner.Retry(c.Request().Context(), jobID, &req)
		if err != nil {
			return scrapeErrorResponse(c, requestID, err)
		}

		return c.JSON(http.StatusAccepted, models.ScrapeAcceptedResponse{
			Success:   true,
			JobID:     job.ID,
			Status:    job.Status,
			Message:   "scraping job requeued",
			Timestamp: time.Now(),
		})
	}
}

// GetJobHandler returns the current state of a job, including the scraped
// bills once the run completes.
func GetJobHandler(runner *jobs.Runner) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()

		job, err := runner.GetJob(c.Request().Context(), c.Param("id"))
		if err != nil {
			return scrapeErrorResponse(c, requestID, err)
		}

		return c.JSON(http.StatusOK, job)
	}
}

// scrapeErrorResponse maps runner errors onto HTTP statuses
func scrapeErrorResponse(c echo.Context, requestID string, err error) error {
	timestamp := time.Now()

	var unsupported *jobs.UnsupportedProviderError
	switch {
	case errors.As(err, &unsupported):
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:     "unsupported_provider",
			Message:   err.Error(),
			RequestID: requestID,
			Timestamp: timestamp,
		})
	case errors.Is(err, jobs.ErrConcurrentRun):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:     "run_already_active",
			Message:   err.Error(),
			RequestID: requestID,
			Timestamp: timestamp,
		})
	case errors.Is(err, jobs.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:     "job_not_found",
			Message:   err.Error(),
			RequestID: requestID,
			Timestamp: timestamp,
		})
	case errors.Is(err, jobs.ErrCredentialsNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:     "credentials_not_found",
			Message:   err.Error(),
			RequestID: requestID,
			Timestamp: timestamp,
		})
	case errors.Is(err, workers.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:     "rate_limited",
			Message:   err.Error(),
			RequestID: requestID,
			Timestamp: timestamp,
		})
	case errors.Is(err, workers.ErrQueueFull):
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:     "queue_full",
			Message:   err.Error(),
			RequestID: requestID,
			Timestamp: timestamp,
		})
	default:
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "job_submission_failed",
			Message:   err.Error(),
			RequestID: requestID,
			Timestamp: timestamp,
		})
	}
}
