package providers

import (
	"testing"

	"rentora-utils/pkg/models"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		commaDecimal bool
		want         float64
		wantErr      bool
	}{
		{name: "comma decimal with unit", raw: "123,45 lei", commaDecimal: true, want: 123.45},
		{name: "comma decimal with thousands dots", raw: "1.234,56", commaDecimal: true, want: 1234.56},
		{name: "comma decimal integer", raw: "250", commaDecimal: true, want: 250},
		{name: "dot decimal", raw: "123.45", commaDecimal: false, want: 123.45},
		{name: "dot decimal with thousands commas", raw: "1,234.56", commaDecimal: false, want: 1234.56},
		{name: "currency prefix", raw: "RON 99,90", commaDecimal: true, want: 99.90},
		{name: "no digits", raw: "n/a", commaDecimal: true, wantErr: true},
		{name: "empty", raw: "", commaDecimal: false, wantErr: true},
		{name: "garbage separators", raw: ".,.,", commaDecimal: false, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw, tt.commaDecimal)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) = %v, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseAmountIdempotent(t *testing.T) {
	for _, commaDecimal := range []bool{true, false} {
		first, err := ParseAmount("1.234,56 lei", true)
		if err != nil {
			t.Fatal(err)
		}

		rendered := FormatAmount(first, commaDecimal)
		second, err := ParseAmount(rendered, commaDecimal)
		if err != nil {
			t.Fatalf("re-parsing %q: %v", rendered, err)
		}
		if first != second {
			t.Errorf("commaDecimal=%v: %v != %v after round trip", commaDecimal, first, second)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "16.12.2024", want: "2024-12-16"},
		{raw: "2024-12-16", want: "2024-12-16"},
		{raw: " 01.02.2025 ", want: "2025-02-01"},
		{raw: "12/16/2024", wantErr: true},
		{raw: "16 decembrie 2024", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q) = %q, want error", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDate(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeRowDefaults(t *testing.T) {
	opts := normalizeOptions{
		CommaDecimal:    true,
		DefaultCurrency: "RON",
		DefaultType:     models.BillTypeGas,
		PaidMarkers:     []string{"achitat"},
	}

	bill, err := normalizeRow(models.RawBillRow{
		InvoiceNumber: " INV-001 ",
		IssuedDate:    "01.11.2024",
		DueDate:       "16.11.2024",
		Amount:        "245,60 lei",
		Status:        "Factura achitată integral",
	}, opts)
	if err != nil {
		t.Fatalf("normalizeRow error: %v", err)
	}

	if bill.Amount != 245.60 {
		t.Errorf("amount = %v, want 245.60", bill.Amount)
	}
	if bill.Currency != "RON" {
		t.Errorf("currency = %q, want RON", bill.Currency)
	}
	if bill.DueDate != "2024-11-16" || bill.IssuedDate != "2024-11-01" {
		t.Errorf("dates = %q / %q", bill.IssuedDate, bill.DueDate)
	}
	if bill.InvoiceNumber != "INV-001" {
		t.Errorf("invoice = %q, want INV-001", bill.InvoiceNumber)
	}
	if bill.Status != models.BillStatusPaid {
		t.Errorf("status = %q, want paid", bill.Status)
	}
	if bill.Type != models.BillTypeGas {
		t.Errorf("type = %q, want gas", bill.Type)
	}
}

func TestNormalizeRowUnpaidByDefault(t *testing.T) {
	opts := normalizeOptions{DefaultCurrency: "RON", DefaultType: models.BillTypeElectricity, PaidMarkers: []string{"achitat"}}

	bill, err := normalizeRow(models.RawBillRow{
		DueDate: "2024-12-01",
		Amount:  "100.00",
		Status:  "Scadentă",
	}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if bill.Status != models.BillStatusPending {
		t.Errorf("status = %q, want pending", bill.Status)
	}
}

func TestNormalizeRowExplicitCurrencyWins(t *testing.T) {
	opts := normalizeOptions{DefaultCurrency: "RON", DefaultType: models.BillTypeElectricity}

	bill, err := normalizeRow(models.RawBillRow{
		DueDate:  "2024-12-01",
		Amount:   "100.00",
		Currency: "eur",
	}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if bill.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", bill.Currency)
	}
}

func TestNormalizeRowsDropsAndCounts(t *testing.T) {
	opts := normalizeOptions{
		CommaDecimal:    true,
		DefaultCurrency: "RON",
		DefaultType:     models.BillTypeGas,
	}

	rows := []models.RawBillRow{
		{InvoiceNumber: "A", DueDate: "16.12.2024", Amount: "100,00"},
		{InvoiceNumber: "B", DueDate: "soon", Amount: "200,00"},
		{InvoiceNumber: "C", DueDate: "17.12.2024", Amount: "free"},
		{InvoiceNumber: "D", DueDate: "18.12.2024", Amount: "300,00"},
	}

	bills, skipped := normalizeRows("test-provider", rows, opts)
	if len(bills) != 2 {
		t.Fatalf("got %d bills, want 2", len(bills))
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if bills[0].InvoiceNumber != "A" || bills[1].InvoiceNumber != "D" {
		t.Errorf("kept invoices %q and %q, want A and D", bills[0].InvoiceNumber, bills[1].InvoiceNumber)
	}
}
