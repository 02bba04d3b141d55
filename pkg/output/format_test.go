package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iwvelando/adu-proposal/internal/milestone"
	"github.com/iwvelando/adu-proposal/internal/pricing"
	"github.com/iwvelando/adu-proposal/internal/proposal"
)

func sampleEstimate() proposal.Estimate {
	return proposal.Estimate{
		Breakdown: pricing.Breakdown{
			LineItems: []pricing.LineItem{
				{Category: pricing.BaseConstruction, Description: "Detached ADU construction", Quantity: 600, UnitPrice: 220, TotalPrice: 132000},
				{Category: pricing.DesignServices, Description: "Design Services", Quantity: 1, UnitPrice: 12500, TotalPrice: 12500, IsOptional: true},
			},
			Subtotal:             144500,
			ConstructionSubtotal: 132000,
			MarkupRate:           0.15,
			MarkupAmount:         19800,
			GrandTotal:           164300,
			PricePerSqFt:         273.83,
			SquareFootage:        600,
		},
		Discount:           pricing.Discount{Undiscounted: 164300, Rate: 0.1, Amount: 16430, Total: 147870},
		DesignFee:          12500,
		Deposit:            1000,
		ConstructionAmount: 134370,
		Milestones: []milestone.Payment{
			{Code: "MOB", Name: "Mobilization", Percentage: 18, Amount: 25000},
			{Code: "FIN", Name: "Final Completion", Percentage: 82, Amount: 109370},
		},
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, sampleEstimate()); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"--- Price breakdown (600 sq ft) ---",
		"Detached ADU construction",
		"$132,000.00",
		"Markup (15.0%)",
		"$164,300.00",
		"Discount (10.0%)",
		"Total after discount",
		"$147,870.00",
		"Price per sq ft: $273.83",
		"--- Payment schedule ---",
		"Design services",
		"Mobilization",
		"$109,370.00",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat missing %q in:\n%s", want, output)
		}
	}
}

func TestPrettyFormatWithoutDiscount(t *testing.T) {
	estimate := sampleEstimate()
	estimate.Discount = pricing.Discount{Undiscounted: 164300, Total: 164300}
	estimate.DesignFee = 0

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, estimate); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	if strings.Contains(buf.String(), "Discount") {
		t.Errorf("PrettyFormat should omit the discount rows when none applies")
	}
	if strings.Contains(buf.String(), "Design services") {
		t.Errorf("PrettyFormat should omit design services when the fee is zero")
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, sampleEstimate()); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CsvFormat produced invalid csv: %v", err)
	}
	// header, 2 line items, 5 totals, design and deposit, 2 milestones
	if len(records) != 12 {
		t.Fatalf("CsvFormat produced %d records, expected 12", len(records))
	}
	if got := records[1]; got[1] != "BaseConstruction" || got[5] != "132000.00" {
		t.Errorf("first line item = %v", got)
	}
	if got := records[7]; got[2] != "final total" || got[5] != "147870.00" {
		t.Errorf("final total row = %v", got)
	}
	if got := records[10]; got[1] != "MOB" || got[4] != "18" || got[5] != "25000.00" {
		t.Errorf("first milestone row = %v", got)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, sampleEstimate()); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}
	var decoded proposal.Estimate
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSONFormat produced invalid json: %v", err)
	}
	if decoded.Discount.Total != 147870 || len(decoded.Milestones) != 2 {
		t.Errorf("JSONFormat round trip = %+v", decoded)
	}
}

func TestWrite(t *testing.T) {
	tests := []struct {
		format    string
		expectErr bool
	}{
		{"pretty", false},
		{"csv", false},
		{"json", false},
		{"xml", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, tt.format, sampleEstimate())
			if (err != nil) != tt.expectErr {
				t.Errorf("Write(%q) error = %v, expectErr %v", tt.format, err, tt.expectErr)
			}
			if !tt.expectErr && buf.Len() == 0 {
				t.Errorf("Write(%q) produced no output", tt.format)
			}
		})
	}
}
