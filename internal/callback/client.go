package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"rentora-utils/internal/config"
	"rentora-utils/pkg/models"
	"rentora-utils/pkg/utils"
)

// Client posts job outcomes to the configured webhook so the main
// application learns about finished runs without polling the job endpoint.
// Delivery is best effort; the job record remains the source of truth.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *logrus.Logger
}

// JobFinishedPayload is the webhook body sent when a job reaches a
// terminal state. Error messages have already been scrubbed of credential
// material before they reach the job record.
type JobFinishedPayload struct {
	JobID        string               `json:"job_id"`
	ProviderID   string               `json:"provider_id"`
	PropertyID   string               `json:"property_id"`
	Status       models.JobStatus     `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Result       *models.ScrapeResult `json:"result,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

// NewClient creates a webhook client, or nil when no URL is configured
func NewClient(cfg *config.Config) *Client {
	if cfg.Callback.URL == "" {
		return nil
	}

	return &Client{
		url: cfg.Callback.URL,
		httpClient: &http.Client{
			Timeout: cfg.Callback.Timeout,
		},
		logger: utils.GetLogger(),
	}
}

// NotifyJobFinished posts the terminal job state to the webhook
func (c *Client) NotifyJobFinished(ctx context.Context, job *models.ScrapingJob) error {
	payload := JobFinishedPayload{
		JobID:        job.ID,
		ProviderID:   job.ProviderID,
		PropertyID:   job.PropertyID,
		Status:       job.Status,
		ErrorMessage: job.ErrorMessage,
		Result:       job.Result,
		Timestamp:    time.Now(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"job_id": job.ID,
		"status": job.Status,
	}).Info("Sending job callback")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send callback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("callback rejected with status %d", resp.StatusCode)
	}

	c.logger.WithField("job_id", job.ID).Info("Job callback sent successfully")
	return nil
}
