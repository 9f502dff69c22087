package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"rentora-utils/internal/captcha"
	"rentora-utils/internal/config"
	"rentora-utils/internal/jobs"
	"rentora-utils/internal/scraper/browser"
	"rentora-utils/internal/scraper/providers"
	"rentora-utils/internal/scraper/workers"
	"rentora-utils/pkg/models"
)

type stubScraper struct{}

func (s *stubScraper) ID() string        { return "engie-romania" }
func (s *stubScraper) Aliases() []string { return []string{"engie"} }
func (s *stubScraper) Login(ctx context.Context, session *browser.Session, creds models.Credentials, solver captcha.Solver) error {
	return nil
}
func (s *stubScraper) NavigateToBills(ctx context.Context, session *browser.Session) error {
	return nil
}
func (s *stubScraper) ExtractBills(ctx context.Context, session *browser.Session) ([]models.RawBillRow, error) {
	return nil, nil
}
func (s *stubScraper) Normalize(rows []models.RawBillRow) ([]models.Bill, int) { return nil, 0 }

type stubDriver struct {
	block chan struct{}
}

func (d *stubDriver) Scrape(ctx context.Context, scraper providers.ProviderScraper, creds models.Credentials) (*models.ScrapeResult, error) {
	if d.block != nil {
		<-d.block
	}
	return &models.ScrapeResult{ProviderID: scraper.ID()}, nil
}

func newTestEnv(t *testing.T, driver jobs.ScrapeDriver) (*config.Config, *jobs.Runner, jobs.Store) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Workers.PoolSize = 1
	cfg.Workers.QueueSize = 10
	cfg.Workers.RateLimit = 6000
	cfg.Workers.Timeout = 5 * time.Second

	store := jobs.NewInMemoryStore()
	registry := providers.NewRegistry(&stubScraper{})
	credentials := jobs.NewStaticCredentialService(map[string]models.Credentials{
		"prop-1": {Username: "u", Password: "p"},
	})

	pool := workers.NewPool(cfg)
	if err := pool.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = pool.Stop() })

	return cfg, jobs.NewRunner(cfg, store, registry, driver, credentials, pool), store
}

func doRequest(handler echo.HandlerFunc, method, target, body string, params map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	_ = handler(c)
	return rec
}

func TestScrapeHandlerAccepted(t *testing.T) {
	cfg, runner, _ := newTestEnv(t, &stubDriver{})

	rec := doRequest(ScrapeHandler(cfg, runner), http.MethodPost, "/api/v1/scrape",
		`{"provider_id":"engie","property_id":"prop-1"}`, nil)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp models.ScrapeAcceptedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.JobID == "" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Status != models.JobStatusPending {
		t.Errorf("status = %q, want pending", resp.Status)
	}
}

func TestScrapeHandlerValidation(t *testing.T) {
	cfg, runner, _ := newTestEnv(t, &stubDriver{})
	handler := ScrapeHandler(cfg, runner)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing provider", body: `{"property_id":"prop-1"}`, want: http.StatusBadRequest},
		{name: "missing property", body: `{"provider_id":"engie"}`, want: http.StatusBadRequest},
		{name: "malformed json", body: `{"provider_id":`, want: http.StatusBadRequest},
		{name: "unknown provider", body: `{"provider_id":"vodafone","property_id":"prop-1"}`, want: http.StatusUnprocessableEntity},
		{name: "no credentials anywhere", body: `{"provider_id":"engie","property_id":"prop-unknown"}`, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(handler, http.MethodPost, "/api/v1/scrape", tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestScrapeHandlerConflictOnActiveRun(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	cfg, runner, _ := newTestEnv(t, &stubDriver{block: block})
	handler := ScrapeHandler(cfg, runner)

	body := `{"provider_id":"engie-romania","property_id":"prop-1"}`
	if rec := doRequest(handler, http.MethodPost, "/api/v1/scrape", body, nil); rec.Code != http.StatusAccepted {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec := doRequest(handler, http.MethodPost, "/api/v1/scrape", body, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second request status = %d, want 409", rec.Code)
	}

	var resp models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != "run_already_active" {
		t.Errorf("error code = %q", resp.Error)
	}
}

func TestGetJobHandler(t *testing.T) {
	_, runner, store := newTestEnv(t, &stubDriver{})

	job, err := store.Create(context.Background(), "engie-romania", "prop-1")
	if err != nil {
		t.Fatal(err)
	}

	rec := doRequest(GetJobHandler(runner), http.MethodGet, "/api/v1/jobs/"+job.ID, "", map[string]string{"id": job.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got models.ScrapingJob
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != job.ID || got.Status != models.JobStatusPending {
		t.Errorf("job = %+v", got)
	}
}

func TestGetJobHandlerNotFound(t *testing.T) {
	_, runner, _ := newTestEnv(t, &stubDriver{})

	rec := doRequest(GetJobHandler(runner), http.MethodGet, "/api/v1/jobs/missing", "", map[string]string{"id": "missing"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRetryJobHandlerConflictOnActiveJob(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	cfg, runner, _ := newTestEnv(t, &stubDriver{block: block})

	rec := doRequest(ScrapeHandler(cfg, runner), http.MethodPost, "/api/v1/scrape",
		`{"provider_id":"engie-romania","property_id":"prop-1"}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatal("could not queue job")
	}
	var accepted models.ScrapeAcceptedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatal(err)
	}

	rec = doRequest(RetryJobHandler(cfg, runner), http.MethodPost,
		"/api/v1/jobs/"+accepted.JobID+"/retry", "", map[string]string{"id": accepted.JobID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
