package export

import (
	"bytes"
	"fmt"

	"github.com/iwvelando/adu-proposal/internal/pricing"
	"github.com/xuri/excelize/v2"
)

const (
	breakdownSheet = "Breakdown"
	scheduleSheet  = "Schedule"
	moneyFormat    = `"$"#,##0.00`
)

type summaryRow struct {
	label string
	value float64
}

type workbookStyles struct {
	title   int
	header  int
	body    int
	money   int
	label   int
	summary int
}

// Workbook creates an Excel file with a price breakdown sheet and a payment
// schedule sheet and returns the file contents.
func Workbook(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), breakdownSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	if _, err := f.NewSheet(scheduleSheet); err != nil {
		return nil, fmt.Errorf("create schedule sheet: %w", err)
	}

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeBreakdown(f, styles, doc); err != nil {
		return nil, err
	}
	if err := writeSchedule(f, styles, doc); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err != nil {
		return s, fmt.Errorf("create title style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	}); err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}
	if s.body, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}); err != nil {
		return s, fmt.Errorf("create body style: %w", err)
	}
	moneyFmt := moneyFormat
	if s.money, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &moneyFmt,
	}); err != nil {
		return s, fmt.Errorf("create money style: %w", err)
	}
	if s.label, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return s, fmt.Errorf("create label style: %w", err)
	}
	if s.summary, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11},
		CustomNumFmt: &moneyFmt,
	}); err != nil {
		return s, fmt.Errorf("create summary style: %w", err)
	}
	return s, nil
}

func writeHeader(f *excelize.File, sheet, lastCol string, styles workbookStyles, doc Document) error {
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(doc.title()))
	f.SetCellStyle(sheet, "A1", lastCol+"1", styles.title)

	f.SetCellValue(sheet, "A2", sanitizeExcelCell("Proposal: "+doc.Number))
	f.SetCellValue(sheet, "A3", sanitizeExcelCell("Client: "+doc.Client))
	f.SetCellValue(sheet, "A4", sanitizeExcelCell("Date: "+doc.Date))
	return nil
}

func writeBreakdown(f *excelize.File, styles workbookStyles, doc Document) error {
	sheet := breakdownSheet
	columns := []string{"A", "B", "C", "D", "E"}
	widths := []float64{18, 44, 10, 16, 16}
	for i, col := range columns {
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}
	if err := writeHeader(f, sheet, "E", styles, doc); err != nil {
		return err
	}

	headers := []string{"Category", "Description", "Qty", "Unit Price", "Total"}
	for i, h := range headers {
		f.SetCellValue(sheet, fmt.Sprintf("%s6", columns[i]), h)
	}
	f.SetCellStyle(sheet, "A6", "E6", styles.header)

	b := doc.Estimate.Breakdown
	row := 7
	for _, item := range b.LineItems {
		r := fmt.Sprintf("%d", row)
		f.SetCellValue(sheet, "A"+r, categoryLabel(item.Category))
		f.SetCellValue(sheet, "B"+r, sanitizeExcelCell(item.Description))
		f.SetCellValue(sheet, "C"+r, item.Quantity)
		f.SetCellValue(sheet, "D"+r, item.UnitPrice)
		f.SetCellValue(sheet, "E"+r, item.TotalPrice)
		f.SetCellStyle(sheet, "A"+r, "C"+r, styles.body)
		f.SetCellStyle(sheet, "D"+r, "E"+r, styles.money)
		row++
	}

	row++
	summary := []summaryRow{
		{"Subtotal", b.Subtotal},
		{fmt.Sprintf("Markup (%.1f%%)", b.MarkupRate*100), b.MarkupAmount},
		{"Grand Total", b.GrandTotal},
	}
	if doc.Estimate.Discount.Applied() {
		summary = append(summary,
			summaryRow{fmt.Sprintf("Discount (%.1f%%)", doc.Estimate.Discount.Rate*100), -doc.Estimate.Discount.Amount},
			summaryRow{"Final Total", doc.Estimate.Discount.Total},
		)
	}
	for _, s := range summary {
		r := fmt.Sprintf("%d", row)
		f.SetCellValue(sheet, "D"+r, s.label)
		f.SetCellStyle(sheet, "D"+r, "D"+r, styles.label)
		f.SetCellValue(sheet, "E"+r, s.value)
		f.SetCellStyle(sheet, "E"+r, "E"+r, styles.summary)
		row++
	}
	return nil
}

func writeSchedule(f *excelize.File, styles workbookStyles, doc Document) error {
	sheet := scheduleSheet
	columns := []string{"A", "B", "C", "D"}
	widths := []float64{8, 36, 12, 16}
	for i, col := range columns {
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}
	if err := writeHeader(f, sheet, "D", styles, doc); err != nil {
		return err
	}

	headers := []string{"#", "Payment", "Percent", "Amount"}
	for i, h := range headers {
		f.SetCellValue(sheet, fmt.Sprintf("%s6", columns[i]), h)
	}
	f.SetCellStyle(sheet, "A6", "D6", styles.header)

	e := doc.Estimate
	row := 7
	addRow := func(index, name string, percent interface{}, amount float64) {
		r := fmt.Sprintf("%d", row)
		f.SetCellValue(sheet, "A"+r, index)
		f.SetCellValue(sheet, "B"+r, sanitizeExcelCell(name))
		f.SetCellValue(sheet, "C"+r, percent)
		f.SetCellValue(sheet, "D"+r, amount)
		f.SetCellStyle(sheet, "A"+r, "C"+r, styles.body)
		f.SetCellStyle(sheet, "D"+r, "D"+r, styles.money)
		row++
	}

	if e.DesignFee > 0 {
		addRow("", "Design Services", "", e.DesignFee)
	}
	addRow("", "Deposit", "", e.Deposit)
	for i, m := range e.Milestones {
		addRow(fmt.Sprintf("%d", i+1), m.Name, fmt.Sprintf("%g%%", m.Percentage), m.Amount)
	}

	r := fmt.Sprintf("%d", row+1)
	f.SetCellValue(sheet, "C"+r, "Total")
	f.SetCellStyle(sheet, "C"+r, "C"+r, styles.label)
	f.SetCellValue(sheet, "D"+r, e.Discount.Total)
	f.SetCellStyle(sheet, "D"+r, "D"+r, styles.summary)
	return nil
}

func categoryLabel(c pricing.Category) string {
	switch c {
	case pricing.BaseConstruction:
		return "Construction"
	case pricing.DesignServices:
		return "Design"
	case pricing.AddOns:
		return "Add-on"
	default:
		return string(c)
	}
}

// sanitizeExcelCell prefixes values that a spreadsheet would evaluate as a
// formula.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
