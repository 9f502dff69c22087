package providers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rentora-utils/pkg/models"
	"rentora-utils/pkg/utils"
)

// RowParseError marks a bill row that could not be normalized. It is always
// absorbed locally: the row is dropped and counted, never aborting the run.
type RowParseError struct {
	Field string
	Value string
	Cause error
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("cannot parse %s value %q: %v", e.Field, e.Value, e.Cause)
}

func (e *RowParseError) Unwrap() error {
	return e.Cause
}

// normalizeOptions carries the per-provider constants needed to turn raw
// portal text into canonical bills.
type normalizeOptions struct {
	// CommaDecimal is true for locales where the comma is the decimal
	// separator (e.g. "123,45 lei")
	CommaDecimal bool

	// DefaultCurrency is the provider's home currency, used when the portal
	// omits one
	DefaultCurrency string

	// DefaultType is the provider's primary utility type
	DefaultType models.BillType

	// PaidMarkers are lowercase substrings of the portal's "paid" status text
	PaidMarkers []string
}

var nonAmountChars = regexp.MustCompile(`[^0-9.,]`)

// ParseAmount converts raw portal amount text to a number. All characters
// other than digits and separators are stripped first. In comma-decimal
// locales the trailing comma is the decimal separator and dots are thousands
// separators; otherwise commas are thousands separators. The result must be
// non-negative or the value is rejected.
func ParseAmount(raw string, commaDecimal bool) (float64, error) {
	cleaned := nonAmountChars.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric content in %q", raw)
	}

	if commaDecimal {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		if i := strings.LastIndex(cleaned, ","); i >= 0 {
			cleaned = strings.ReplaceAll(cleaned[:i], ",", "") + "." + cleaned[i+1:]
		}
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	if amount < 0 {
		return 0, fmt.Errorf("negative amount: %v", amount)
	}

	return amount, nil
}

// FormatAmount renders an amount back in the provider's locale convention.
// Normalization is idempotent: parsing the rendered value yields the same
// number.
func FormatAmount(amount float64, commaDecimal bool) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	if commaDecimal {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

// ParseDate accepts DD.MM.YYYY or ISO YYYY-MM-DD and always outputs ISO
// YYYY-MM-DD. Any other shape is rejected.
func ParseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	for _, layout := range []string{"02.01.2006", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}

	return "", fmt.Errorf("unrecognized date format: %q", raw)
}

// normalizeRow converts one raw row to a canonical bill or reports why it
// cannot be represented.
func normalizeRow(row models.RawBillRow, opts normalizeOptions) (models.Bill, error) {
	amount, err := ParseAmount(row.Amount, opts.CommaDecimal)
	if err != nil {
		return models.Bill{}, &RowParseError{Field: "amount", Value: row.Amount, Cause: err}
	}

	dueDate, err := ParseDate(row.DueDate)
	if err != nil {
		return models.Bill{}, &RowParseError{Field: "due_date", Value: row.DueDate, Cause: err}
	}

	issuedDate := ""
	if strings.TrimSpace(row.IssuedDate) != "" {
		issuedDate, err = ParseDate(row.IssuedDate)
		if err != nil {
			return models.Bill{}, &RowParseError{Field: "issued_date", Value: row.IssuedDate, Cause: err}
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(row.Currency))
	if currency == "" {
		currency = opts.DefaultCurrency
	}

	status := models.BillStatusPending
	lowerStatus := strings.ToLower(row.Status)
	for _, marker := range opts.PaidMarkers {
		if strings.Contains(lowerStatus, marker) {
			status = models.BillStatusPaid
			break
		}
	}

	return models.Bill{
		Amount:        amount,
		Currency:      currency,
		DueDate:       dueDate,
		IssuedDate:    issuedDate,
		InvoiceNumber: strings.TrimSpace(row.InvoiceNumber),
		Status:        status,
		Type:          opts.DefaultType,
	}, nil
}

// normalizeRows drops and counts rows that fail to parse; a partial result
// is still a success as long as the caller sees at least one bill.
func normalizeRows(providerID string, rows []models.RawBillRow, opts normalizeOptions) ([]models.Bill, int) {
	logger := utils.GetLogger()

	bills := make([]models.Bill, 0, len(rows))
	skipped := 0

	for _, row := range rows {
		bill, err := normalizeRow(row, opts)
		if err != nil {
			skipped++
			logger.WithFields(map[string]interface{}{
				"provider": providerID,
				"invoice":  row.InvoiceNumber,
				"error":    err.Error(),
			}).Debug("Dropping unparseable bill row")
			continue
		}
		bills = append(bills, bill)
	}

	return bills, skipped
}
