package providers

import (
	"context"

	"rentora-utils/internal/captcha"
	"rentora-utils/internal/config"
	"rentora-utils/internal/scraper/browser"
	"rentora-utils/pkg/models"
)

// EngieRomania portal constants. The login form sits behind a OneTrust
// cookie banner and a reCAPTCHA v2 widget; amounts are comma-decimal RON and
// dates are DD.MM.YYYY.
const (
	engieLoginURL = "https://my.engie.ro/autentificare"
	engieBillsURL = "https://my.engie.ro/facturi"

	engieConsentSelector    = "#onetrust-accept-btn-handler"
	engieUsernameSelector   = "input#username"
	engiePasswordSelector   = "input#password"
	engieSubmitSelector     = "button[type='submit']"
	engieDashboardSelector  = "a[href*='/facturi']"
	engieBillsTableSelector = "table.istoric-facturi"
)

// EngieRomania scrapes the Engie Romania customer portal
type EngieRomania struct {
	config *config.Config
}

// NewEngieRomania creates the Engie Romania scraper variant
func NewEngieRomania(cfg *config.Config) *EngieRomania {
	return &EngieRomania{config: cfg}
}

func (e *EngieRomania) ID() string {
	return "engie-romania"
}

func (e *EngieRomania) Aliases() []string {
	return []string{"engie", "engieromania", "engie_ro", "myengie"}
}

// Login fills the credential form, solves the page's reCAPTCHA through the
// solver and submits. Reaching the dashboard is the success signal; anything
// else aborts the run.
func (e *EngieRomania) Login(ctx context.Context, session *browser.Session, creds models.Credentials, solver captcha.Solver) error {
	if err := session.Goto(ctx, engieLoginURL); err != nil {
		return err
	}

	dismissConsent(session, engieConsentSelector, e.config.Scraper.ConsentWait)

	if err := session.WaitForSelector(engieUsernameSelector, e.config.Scraper.SelectorWait); err != nil {
		return err
	}
	if err := session.Type(engieUsernameSelector, creds.Username); err != nil {
		return err
	}
	if err := session.Type(engiePasswordSelector, creds.Password); err != nil {
		return err
	}

	html, err := session.HTML()
	if err != nil {
		return err
	}

	if challenge, found := captcha.DetectRecaptcha(html, engieLoginURL); found {
		token, err := solver.SolveRecaptcha(ctx, challenge.SiteKey, challenge.PageURL)
		if err != nil {
			return err
		}
		if err := captcha.InjectSolution(session, token); err != nil {
			return err
		}
	}

	if err := session.Click(engieSubmitSelector); err != nil {
		return err
	}

	// The dashboard link only renders for an authenticated session
	if err := session.WaitForSelector(engieDashboardSelector, e.config.Scraper.SelectorWait); err != nil {
		return &LoginRejectedError{Cause: err}
	}

	return nil
}

func (e *EngieRomania) NavigateToBills(ctx context.Context, session *browser.Session) error {
	if err := session.Goto(ctx, engieBillsURL); err != nil {
		return err
	}
	return session.WaitForSelector(engieBillsTableSelector, e.config.Scraper.SelectorWait)
}

// ExtractBills reads the bill history table. Column order on the portal:
// invoice number, issue date, due date, amount, status. Rows with an
// unexpected cell count are kept as empty raw rows so normalization counts
// them as skipped instead of silently losing them.
func (e *EngieRomania) ExtractBills(ctx context.Context, session *browser.Session) ([]models.RawBillRow, error) {
	cells, err := session.ExtractTable(engieBillsTableSelector)
	if err != nil {
		return nil, err
	}

	rows := make([]models.RawBillRow, 0, len(cells))
	for _, row := range cells {
		if len(row) < 5 {
			rows = append(rows, models.RawBillRow{})
			continue
		}
		rows = append(rows, models.RawBillRow{
			InvoiceNumber: row[0],
			IssuedDate:    row[1],
			DueDate:       row[2],
			Amount:        row[3],
			Status:        row[4],
		})
	}

	return rows, nil
}

func (e *EngieRomania) Normalize(rows []models.RawBillRow) ([]models.Bill, int) {
	return normalizeRows(e.ID(), rows, normalizeOptions{
		CommaDecimal:    true,
		DefaultCurrency: "RON",
		DefaultType:     models.BillTypeGas,
		PaidMarkers:     []string{"achitat", "platit", "plătit", "incasat", "încasat"},
	})
}
