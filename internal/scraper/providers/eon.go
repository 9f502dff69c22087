package providers

import (
	"context"

	"rentora-utils/internal/captcha"
	"rentora-utils/internal/config"
	"rentora-utils/internal/scraper/browser"
	"rentora-utils/pkg/models"
)

// E.ON Romania portal constants. Unlike Engie there is no captcha on the
// login form; the consent banner and the bills table have their own shapes,
// and the table carries an explicit currency column.
const (
	eonLoginURL = "https://myline.eon.ro/login"
	eonBillsURL = "https://myline.eon.ro/facturi-si-plati"

	eonConsentSelector    = ".cookie-notice button.accept-all"
	eonEmailSelector      = "input#email"
	eonPasswordSelector   = "input#password"
	eonSubmitSelector     = "button#login-submit"
	eonAccountSelector    = "[data-test='account-overview']"
	eonBillsTableSelector = "table#invoice-list"
)

// EonRomania scrapes the E.ON Romania MyLine portal
type EonRomania struct {
	config *config.Config
}

// NewEonRomania creates the E.ON Romania scraper variant
func NewEonRomania(cfg *config.Config) *EonRomania {
	return &EonRomania{config: cfg}
}

func (e *EonRomania) ID() string {
	return "eon-romania"
}

func (e *EonRomania) Aliases() []string {
	return []string{"eon", "eonromania", "e.on", "myline-eon"}
}

// Login submits the credential form. The portal currently serves no captcha;
// the solver stays unused but the signature keeps variants interchangeable.
func (e *EonRomania) Login(ctx context.Context, session *browser.Session, creds models.Credentials, solver captcha.Solver) error {
	if err := session.Goto(ctx, eonLoginURL); err != nil {
		return err
	}

	dismissConsent(session, eonConsentSelector, e.config.Scraper.ConsentWait)

	if err := session.WaitForSelector(eonEmailSelector, e.config.Scraper.SelectorWait); err != nil {
		return err
	}
	if err := session.Type(eonEmailSelector, creds.Username); err != nil {
		return err
	}
	if err := session.Type(eonPasswordSelector, creds.Password); err != nil {
		return err
	}
	if err := session.Click(eonSubmitSelector); err != nil {
		return err
	}

	if err := session.WaitForSelector(eonAccountSelector, e.config.Scraper.SelectorWait); err != nil {
		return &LoginRejectedError{Cause: err}
	}

	return nil
}

func (e *EonRomania) NavigateToBills(ctx context.Context, session *browser.Session) error {
	if err := session.Goto(ctx, eonBillsURL); err != nil {
		return err
	}
	return session.WaitForSelector(eonBillsTableSelector, e.config.Scraper.SelectorWait)
}

// ExtractBills reads the invoice list. Column order: invoice number, issue
// date, due date, amount, currency, status.
func (e *EonRomania) ExtractBills(ctx context.Context, session *browser.Session) ([]models.RawBillRow, error) {
	cells, err := session.ExtractTable(eonBillsTableSelector)
	if err != nil {
		return nil, err
	}

	rows := make([]models.RawBillRow, 0, len(cells))
	for _, row := range cells {
		if len(row) < 6 {
			rows = append(rows, models.RawBillRow{})
			continue
		}
		rows = append(rows, models.RawBillRow{
			InvoiceNumber: row[0],
			IssuedDate:    row[1],
			DueDate:       row[2],
			Amount:        row[3],
			Currency:      row[4],
			Status:        row[5],
		})
	}

	return rows, nil
}

func (e *EonRomania) Normalize(rows []models.RawBillRow) ([]models.Bill, int) {
	return normalizeRows(e.ID(), rows, normalizeOptions{
		CommaDecimal:    true,
		DefaultCurrency: "RON",
		DefaultType:     models.BillTypeElectricity,
		PaidMarkers:     []string{"achitat", "platit", "plătit"},
	})
}
