package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/sirupsen/logrus"
	"github.com/ysmood/gson"
	"rentora-utils/internal/config"
	"rentora-utils/pkg/utils"
)

// Session owns one headless browser for the lifetime of one scraping run.
// It exposes exactly the operations provider scrapers need and nothing else.
// A session must never be shared across concurrent jobs, and Close must run
// on every exit path to avoid leaking the browser process.
type Session struct {
	config    *config.Config
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	logger    *logrus.Logger
	closeOnce sync.Once
}

// NewSession launches a browser and opens a stealth page ready for
// navigation.
func NewSession(cfg *config.Config) (*Session, error) {
	logger := utils.GetLogger()

	l := launcher.New().
		Headless(cfg.Scraper.HeadlessMode).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-web-security").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	// Use system-installed Chrome/Chromium instead of downloading
	if chromePath := getSystemChromePath(); chromePath != "" {
		l = l.Bin(chromePath)
		logger.WithField("chrome_path", chromePath).Debug("Using system Chrome browser")
	} else {
		logger.Warn("System Chrome not found, Rod will download browser")
	}

	if cfg.Scraper.UserAgent != "" {
		l = l.Set("user-agent", cfg.Scraper.UserAgent)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	session := &Session{
		config:   cfg,
		launcher: l,
		browser:  b,
		logger:   logger,
	}

	page, err := session.createPage()
	if err != nil {
		_ = rod.Try(func() { b.MustClose() })
		l.Cleanup()
		return nil, err
	}
	session.page = page

	return session, nil
}

// createPage opens a page with stealth evasions and a desktop viewport
func (s *Session) createPage() (*rod.Page, error) {
	var page *rod.Page
	var err error

	if s.config.Scraper.StealthMode {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		s.logger.WithField("error", err.Error()).Warn("Failed to set viewport")
	}

	if s.config.Scraper.UserAgent != "" {
		err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: s.config.Scraper.UserAgent,
		})
		if err != nil {
			s.logger.WithField("error", err.Error()).Warn("Failed to set user agent")
		}
	}

	return page, nil
}

// Goto navigates to the URL and waits for the load event
func (s *Session) Goto(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.config.Scraper.RequestTimeout)
	defer cancel()

	err := rod.Try(func() {
		s.page.Context(navCtx).MustNavigate(url).MustWaitLoad()
	})
	if err != nil {
		return &AutomationError{Step: fmt.Sprintf("navigate to %s", url), Cause: err}
	}

	s.logger.WithField("url", url).Debug("Navigation completed")
	return nil
}

// WaitForSelector waits for an element to appear on the page
func (s *Session) WaitForSelector(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := rod.Try(func() {
		s.page.Context(ctx).MustElement(selector)
	})
	if err != nil {
		return &AutomationError{Step: fmt.Sprintf("wait for selector %q", selector), Cause: err}
	}

	return nil
}

// Type fills the element matched by selector with text
func (s *Session) Type(selector, text string) error {
	err := rod.Try(func() {
		el := s.page.Timeout(s.config.Scraper.SelectorWait).MustElement(selector)
		el.MustSelectAllText().MustInput(text)
	})
	if err != nil {
		return &AutomationError{Step: fmt.Sprintf("type into %q", selector), Cause: err}
	}

	return nil
}

// Click clicks the element matched by selector
func (s *Session) Click(selector string) error {
	err := rod.Try(func() {
		s.page.Timeout(s.config.Scraper.SelectorWait).MustElement(selector).MustClick()
	})
	if err != nil {
		return &AutomationError{Step: fmt.Sprintf("click %q", selector), Cause: err}
	}

	return nil
}

// Eval evaluates a JavaScript function expression in the page and returns
// its result.
func (s *Session) Eval(js string) (gson.JSON, error) {
	var result gson.JSON

	err := rod.Try(func() {
		result = s.page.MustEval(js)
	})
	if err != nil {
		return gson.JSON{}, &AutomationError{Step: "evaluate in page", Cause: err}
	}

	return result, nil
}

// HTML returns the full HTML content of the current page
func (s *Session) HTML() (string, error) {
	html, err := s.page.HTML()
	if err != nil {
		return "", &AutomationError{Step: "read page html", Cause: err}
	}
	return html, nil
}

// ExtractTable returns the cell text of every body row of the table matched
// by selector. Rows without data cells (header rows) are skipped.
func (s *Session) ExtractTable(selector string) ([][]string, error) {
	html, err := s.HTML()
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &AutomationError{Step: "parse page html", Cause: err}
	}

	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, &AutomationError{
			Step:  fmt.Sprintf("extract table %q", selector),
			Cause: fmt.Errorf("no element matches selector"),
		}
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	return rows, nil
}

// Close releases the page, the browser and the launcher. It is safe to call
// from multiple exit paths; only the first call does the work.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.page != nil {
			_ = rod.Try(func() { s.page.MustClose() })
		}
		if s.browser != nil {
			_ = rod.Try(func() { s.browser.MustClose() })
		}
		if s.launcher != nil {
			s.launcher.Cleanup()
		}
		s.logger.Debug("Browser session closed")
	})
}

// getSystemChromePath finds the system-installed Chrome/Chromium browser
func getSystemChromePath() string {
	// First check environment variables (Docker container configuration)
	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		if _, err := os.Stat(chromeBin); err == nil {
			return chromeBin
		}
	}

	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	commonPaths := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"C:\\Program Files\\Google\\Chrome\\Application\\chrome.exe",
		"C:\\Program Files (x86)\\Google\\Chrome\\Application\\chrome.exe",
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
