package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"rentora-utils/internal/captcha"
	"rentora-utils/internal/config"
	"rentora-utils/internal/scraper/browser"
	"rentora-utils/pkg/models"
	"rentora-utils/pkg/utils"
)

// ProviderScraper is implemented once per utility portal. Each variant owns
// its portal's login form shape, captcha presence, cookie-consent
// interaction, bills-table layout and text formats; shared logic never
// branches on provider identity.
type ProviderScraper interface {
	// ID returns the canonical provider identifier
	ID() string

	// Aliases returns alternative identifiers that resolve to this provider
	Aliases() []string

	// Login authenticates the session against the portal. Any failure here
	// aborts the whole run.
	Login(ctx context.Context, session *browser.Session, creds models.Credentials, solver captcha.Solver) error

	// NavigateToBills brings the authenticated session to the bill listing
	NavigateToBills(ctx context.Context, session *browser.Session) error

	// ExtractBills reads the raw bill rows from the listing page
	ExtractBills(ctx context.Context, session *browser.Session) ([]models.RawBillRow, error)

	// Normalize converts raw rows to canonical bills, returning the bills
	// that parsed and the count of rows dropped
	Normalize(rows []models.RawBillRow) ([]models.Bill, int)
}

// Driver composes the provider steps with the browser session lifecycle:
// open, login, navigate, extract, normalize, close - close always runs.
type Driver struct {
	config *config.Config
	solver captcha.Solver
	logger *logrus.Logger
}

// NewDriver creates a scrape driver sharing one solver across runs
func NewDriver(cfg *config.Config, solver captcha.Solver) *Driver {
	return &Driver{
		config: cfg,
		solver: solver,
		logger: utils.GetLogger(),
	}
}

// Scrape runs one end-to-end scrape against the provider's portal. The
// session is owned exclusively by this run and released on every exit path.
func (d *Driver) Scrape(ctx context.Context, scraper ProviderScraper, creds models.Credentials) (*models.ScrapeResult, error) {
	startTime := time.Now()

	d.logger.WithField("provider", scraper.ID()).Info("Starting bill scrape")

	session, err := browser.NewSession(d.config)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer session.Close()

	if err := scraper.Login(ctx, session, creds, d.solver); err != nil {
		return nil, err
	}

	if err := scraper.NavigateToBills(ctx, session); err != nil {
		return nil, err
	}

	rows, err := scraper.ExtractBills(ctx, session)
	if err != nil {
		return nil, err
	}

	bills, skipped := scraper.Normalize(rows)
	if len(rows) > 0 && len(bills) == 0 {
		return nil, fmt.Errorf("no bill rows could be parsed (%d rows found)", len(rows))
	}

	result := &models.ScrapeResult{
		ProviderID:  scraper.ID(),
		Bills:       bills,
		SkippedRows: skipped,
		ScrapedAt:   time.Now(),
		Duration:    time.Since(startTime),
	}

	d.logger.WithFields(logrus.Fields{
		"provider":     scraper.ID(),
		"bills":        len(bills),
		"skipped_rows": skipped,
		"duration":     result.Duration,
	}).Info("Bill scrape completed")

	return result, nil
}

// dismissConsent tries to click a cookie-consent banner away within a short
// window. Absence of the banner is not an error; consent handling never
// blocks a run.
func dismissConsent(session *browser.Session, selector string, wait time.Duration) {
	if err := session.WaitForSelector(selector, wait); err != nil {
		utils.GetLogger().WithField("selector", selector).Debug("No consent banner found, proceeding")
		return
	}

	if err := session.Click(selector); err != nil {
		utils.GetLogger().WithFields(logrus.Fields{
			"selector": selector,
			"error":    err.Error(),
		}).Debug("Consent banner click failed, proceeding anyway")
	}
}
