package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2captcha/2captcha-go"
	"github.com/sirupsen/logrus"
	"rentora-utils/internal/config"
	"rentora-utils/pkg/utils"
)

// notReadyStatus is the service's verbatim "poll again later" marker.
const notReadyStatus = "CAPCHA_NOT_READY"

// Solver is the interface scrapers use to defeat interactive challenges on
// login pages.
type Solver interface {
	SolveRecaptcha(ctx context.Context, siteKey, pageURL string) (string, error)
	IsHealthy() bool
}

// TwoCaptchaSolver implements 2CAPTCHA service integration. Submission and
// polling go through the raw in.php/res.php endpoints with an explicit
// bounded poll loop; the official client is kept for balance/health checks.
type TwoCaptchaSolver struct {
	config     *config.Config
	httpClient *http.Client
	api        *api2captcha.Client
	logger     *logrus.Logger
}

// serviceResponse mirrors the wire shape of both solver endpoints:
// status 1 means Request carries the payload (ticket id or token),
// status 0 means Request carries a status/error reason.
type serviceResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

// NewTwoCaptchaSolver creates a new 2CAPTCHA solver instance
func NewTwoCaptchaSolver(cfg *config.Config) *TwoCaptchaSolver {
	logger := utils.GetLogger()

	if cfg.Scraper.Captcha.APIKey == "" {
		logger.Warn("2CAPTCHA API key not configured - captcha solving will be disabled")
	} else {
		logger.WithField("api_key_length", len(cfg.Scraper.Captcha.APIKey)).Info("2CAPTCHA solver initialized with API key")
	}

	api := api2captcha.NewClient(cfg.Scraper.Captcha.APIKey)
	api.PollingInterval = int(cfg.Scraper.Captcha.PollInterval.Seconds())

	return &TwoCaptchaSolver{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		api:    api,
		logger: logger,
	}
}

// Submit posts the challenge parameters to the solving service and returns
// the ticket id used to poll for the solution.
func (tcs *TwoCaptchaSolver) Submit(ctx context.Context, siteKey, pageURL string) (string, error) {
	form := url.Values{}
	form.Set("key", tcs.config.Scraper.Captcha.APIKey)
	form.Set("method", "userrecaptcha")
	form.Set("googlekey", siteKey)
	form.Set("pageurl", pageURL)
	form.Set("json", "1")

	endpoint := tcs.config.Scraper.Captcha.BaseURL + "/in.php"
	resp, err := tcs.postForm(ctx, endpoint, form)
	if err != nil {
		return "", fmt.Errorf("failed to submit captcha challenge: %w", err)
	}

	if resp.Status != 1 {
		return "", &SubmissionError{Reason: resp.Request}
	}

	tcs.logger.WithFields(logrus.Fields{
		"ticket_id": resp.Request,
		"page_url":  pageURL,
	}).Debug("Captcha challenge submitted")

	return resp.Request, nil
}

// Poll performs a single poll for the solution of a submitted ticket. It
// returns ErrNotReady when the service reports the solution is still being
// worked on, and a SolveError for any other non-success status.
func (tcs *TwoCaptchaSolver) Poll(ctx context.Context, ticketID string) (string, error) {
	query := url.Values{}
	query.Set("key", tcs.config.Scraper.Captcha.APIKey)
	query.Set("action", "get")
	query.Set("id", ticketID)
	query.Set("json", "1")

	endpoint := tcs.config.Scraper.Captcha.BaseURL + "/res.php?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build poll request: %w", err)
	}

	resp, err := tcs.do(req)
	if err != nil {
		return "", fmt.Errorf("failed to poll captcha solution: %w", err)
	}

	if resp.Status == 1 {
		return resp.Request, nil
	}

	if strings.EqualFold(resp.Request, notReadyStatus) {
		return "", ErrNotReady
	}

	return "", &SolveError{Reason: resp.Request}
}

// SolveRecaptcha submits the challenge once and polls for the solution in a
// bounded loop: ErrNotReady retries after the poll interval, any other error
// aborts immediately, and an exhausted attempt budget yields a TimeoutError.
// Worst-case wait is PollInterval * MaxAttempts.
func (tcs *TwoCaptchaSolver) SolveRecaptcha(ctx context.Context, siteKey, pageURL string) (string, error) {
	if !tcs.config.Scraper.Captcha.EnableAutoSolve {
		return "", fmt.Errorf("captcha auto-solve is disabled")
	}

	if tcs.config.Scraper.Captcha.APIKey == "" {
		return "", fmt.Errorf("2CAPTCHA API key not configured")
	}

	tcs.logger.WithFields(logrus.Fields{
		"site_key": siteKey,
		"page_url": pageURL,
	}).Info("Starting reCAPTCHA solving with 2CAPTCHA")

	startTime := time.Now()

	ticketID, err := tcs.Submit(ctx, siteKey, pageURL)
	if err != nil {
		return "", err
	}

	pollInterval := tcs.config.Scraper.Captcha.PollInterval
	maxAttempts := tcs.config.Scraper.Captcha.MaxAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}

		token, err := tcs.Poll(ctx, ticketID)
		if err == nil {
			tcs.logger.WithFields(logrus.Fields{
				"page_url":     pageURL,
				"attempts":     attempt,
				"solving_time": time.Since(startTime),
			}).Info("Successfully solved reCAPTCHA")
			return token, nil
		}

		if err == ErrNotReady {
			tcs.logger.WithFields(logrus.Fields{
				"ticket_id": ticketID,
				"attempt":   attempt,
			}).Debug("Captcha solution not ready, will poll again")
			continue
		}

		tcs.logger.WithFields(logrus.Fields{
			"ticket_id": ticketID,
			"attempt":   attempt,
			"error":     err.Error(),
		}).Error("Failed to solve reCAPTCHA")
		return "", err
	}

	return "", &TimeoutError{
		Attempts: maxAttempts,
		Waited:   time.Since(startTime),
	}
}

// IsHealthy checks if the 2CAPTCHA service is available
func (tcs *TwoCaptchaSolver) IsHealthy() bool {
	if tcs.config.Scraper.Captcha.APIKey == "" {
		tcs.logger.Debug("2CAPTCHA health check failed: no API key configured")
		return false
	}

	// Check balance to verify API key is working
	balance, err := tcs.api.GetBalance()
	if err != nil {
		tcs.logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("2CAPTCHA health check failed - API call error")
		return false
	}

	tcs.logger.WithField("balance", balance).Debug("2CAPTCHA health check successful")
	return balance >= 0
}

func (tcs *TwoCaptchaSolver) postForm(ctx context.Context, endpoint string, form url.Values) (*serviceResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return tcs.do(req)
}

func (tcs *TwoCaptchaSolver) do(req *http.Request) (*serviceResponse, error) {
	resp, err := tcs.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("solver service returned HTTP %d", resp.StatusCode)
	}

	var parsed serviceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode solver response: %w", err)
	}

	return &parsed, nil
}
