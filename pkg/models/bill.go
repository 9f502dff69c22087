package models

import "time"

// BillStatus represents the payment status of a scraped bill
type BillStatus string

const (
	BillStatusPending BillStatus = "pending"
	BillStatusPaid    BillStatus = "paid"
)

// BillType represents the utility category of a bill
type BillType string

const (
	BillTypeElectricity BillType = "electricity"
	BillTypeGas         BillType = "gas"
	BillTypeWater       BillType = "water"
	BillTypeInternet    BillType = "internet"
	BillTypeOther       BillType = "other"
)

// Bill is the canonical, provider-agnostic representation of a billing
// record scraped from a utility portal. Amount is always >= 0, DueDate and
// IssuedDate are calendar dates in ISO YYYY-MM-DD form, Currency is a
// 3-letter ISO code (defaulted per provider when the portal omits it).
type Bill struct {
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	DueDate       string     `json:"due_date"`
	IssuedDate    string     `json:"issued_date,omitempty"`
	InvoiceNumber string     `json:"invoice_number"`
	Status        BillStatus `json:"status"`
	Type          BillType   `json:"type"`
}

// RawBillRow is one row of bill data as extracted from a provider's table,
// before any normalization. Field values are raw cell text in whatever
// format the portal renders them.
type RawBillRow struct {
	InvoiceNumber string `json:"invoice_number"`
	IssuedDate    string `json:"issued_date"`
	DueDate       string `json:"due_date"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
}

// ScrapeResult is the outcome of one successful provider scrape
type ScrapeResult struct {
	ProviderID  string        `json:"provider_id"`
	Bills       []Bill        `json:"bills"`
	SkippedRows int           `json:"skipped_rows"`
	ScrapedAt   time.Time     `json:"scraped_at"`
	Duration    time.Duration `json:"duration"`
}

// Credentials is a decrypted portal login pair. It is held only for the
// duration of one scraping run and must never be persisted or logged.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
