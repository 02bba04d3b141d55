// Package output provides utilities for formatting and displaying estimates.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/adu-proposal/internal/proposal"
	"github.com/iwvelando/adu-proposal/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders the estimate in the named format.
func Write(w io.Writer, format string, estimate proposal.Estimate) error {
	switch format {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, estimate)
	case constants.OutputFormatCSV:
		return CsvFormat(w, estimate)
	case constants.OutputFormatJSON:
		return JSONFormat(w, estimate)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, estimate proposal.Estimate) error {
	p := &printer{w: w, p: message.NewPrinter(language.English)}
	b := estimate.Breakdown

	p.printf("--- Price breakdown (%.0f sq ft) ---\n", b.SquareFootage)
	p.printf("%-40s | %12s | %14s\n", "Item", "Unit price", "Total")
	p.printf("%-40s | %12s | %14s\n", "____", "__________", "_____")
	for _, item := range b.LineItems {
		p.printf("%-40s | $%11.2f | $%13.2f\n", item.Description, item.UnitPrice, item.TotalPrice)
	}

	p.row("Subtotal", b.Subtotal)
	p.row(fmt.Sprintf("Markup (%.1f%%)", b.MarkupRate*constants.PercentageMultiplier), b.MarkupAmount)
	p.row("Grand total", b.GrandTotal)
	if estimate.Discount.Applied() {
		p.row(fmt.Sprintf("Discount (%.1f%%)", estimate.Discount.Rate*constants.PercentageMultiplier), -estimate.Discount.Amount)
		p.row("Total after discount", estimate.Discount.Total)
	}
	p.printf("Price per sq ft: $%.2f\n\n", b.PricePerSqFt)

	p.printf("--- Payment schedule ---\n")
	if estimate.DesignFee > 0 {
		p.row("Design services", estimate.DesignFee)
	}
	p.row("Deposit", estimate.Deposit)
	for _, m := range estimate.Milestones {
		p.printf("%-40s | %11.1f%% | $%13.2f\n", m.Name, m.Percentage, m.Amount)
	}
	return p.err
}

// printer keeps the first write error so the table code can stay linear.
type printer struct {
	w   io.Writer
	p   *message.Printer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = p.p.Fprintf(p.w, format, args...)
}

func (p *printer) row(label string, amount float64) {
	p.printf("%-40s | %12s | $%13.2f\n", label, "", amount)
}

// CsvFormat outputs in comma-separated value format, one row per line item
// followed by the totals and the payment schedule.
func CsvFormat(w io.Writer, estimate proposal.Estimate) error {
	writer := csv.NewWriter(w)
	b := estimate.Breakdown
	money := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

	records := [][]string{{"section", "category", "description", "quantity", "unit price", "total"}}
	for _, item := range b.LineItems {
		records = append(records, []string{
			"line item", string(item.Category), item.Description,
			strconv.FormatFloat(item.Quantity, 'f', -1, 64), money(item.UnitPrice), money(item.TotalPrice),
		})
	}
	records = append(records,
		[]string{"total", "", "subtotal", "", "", money(b.Subtotal)},
		[]string{"total", "", "markup", "", strconv.FormatFloat(b.MarkupRate, 'f', -1, 64), money(b.MarkupAmount)},
		[]string{"total", "", "grand total", "", "", money(b.GrandTotal)},
		[]string{"total", "", "discount", "", strconv.FormatFloat(estimate.Discount.Rate, 'f', -1, 64), money(estimate.Discount.Amount)},
		[]string{"total", "", "final total", "", "", money(estimate.Discount.Total)},
		[]string{"payment", "", "design services", "", "", money(estimate.DesignFee)},
		[]string{"payment", "", "deposit", "", "", money(estimate.Deposit)},
	)
	for _, m := range estimate.Milestones {
		records = append(records, []string{
			"payment", m.Code, m.Name, "", strconv.FormatFloat(m.Percentage, 'f', -1, 64), money(m.Amount),
		})
	}

	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// JSONFormat outputs the estimate as indented JSON.
func JSONFormat(w io.Writer, estimate proposal.Estimate) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(estimate)
}
