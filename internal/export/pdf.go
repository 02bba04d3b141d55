package export

import (
	"fmt"

	"github.com/iwvelando/adu-proposal/pkg/format"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	grey     = &props.Color{Red: 100, Green: 100, Blue: 100}
	headerBg = &props.Color{Red: 33, Green: 37, Blue: 41}
	altBg    = &props.Color{Red: 248, Green: 249, Blue: 250}
)

// SummaryPDF creates a one-page price summary with the line items, totals and
// payment schedule and returns the raw PDF bytes.
func SummaryPDF(doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.Letter).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addPDFHeader(m, doc)
	addPDFLineItems(m, doc)
	addPDFTotals(m, doc)
	addPDFSchedule(m, doc)

	generated, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary PDF: %w", err)
	}
	return generated.GetBytes(), nil
}

func addPDFHeader(m core.Maroto, doc Document) {
	m.AddRows(
		row.New(10).Add(
			col.New(8).Add(text.New(doc.title(), props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Left})),
			col.New(4).Add(text.New(doc.Number, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right})),
		),
	)

	contact := doc.Company.Phone
	if doc.Company.Email != "" {
		if contact != "" {
			contact += " | "
		}
		contact += doc.Company.Email
	}
	m.AddRows(
		row.New(7).Add(
			col.New(8).Add(text.New(contact, props.Text{Size: 8, Align: align.Left, Color: grey})),
			col.New(4).Add(text.New(doc.Date, props.Text{Size: 8, Align: align.Right})),
		),
		row.New(7).Add(
			col.New(12).Add(text.New("Prepared for "+doc.Client, props.Text{Size: 9, Align: align.Left})),
		),
		row.New(4),
	)
}

func addPDFLineItems(m core.Maroto, doc Document) {
	header := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: &props.Color{Red: 255, Green: 255, Blue: 255}}
	headerLeft := header
	headerLeft.Align = align.Left
	headerCell := &props.Cell{BackgroundColor: headerBg}

	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(text.New("Description", headerLeft)).WithStyle(headerCell),
			col.New(2).Add(text.New("Qty", header)).WithStyle(headerCell),
			col.New(2).Add(text.New("Unit Price", header)).WithStyle(headerCell),
			col.New(2).Add(text.New("Total", header)).WithStyle(headerCell),
		),
	)

	left := props.Text{Size: 8, Align: align.Left}
	right := props.Text{Size: 8, Align: align.Right}
	for i, item := range doc.Estimate.Breakdown.LineItems {
		cols := []core.Col{
			col.New(6).Add(text.New(item.Description, left)),
			col.New(2).Add(text.New(fmt.Sprintf("%g", item.Quantity), right)),
			col.New(2).Add(text.New(format.Currency(item.UnitPrice), right)),
			col.New(2).Add(text.New(format.Currency(item.TotalPrice), right)),
		}
		if i%2 == 1 {
			for j := range cols {
				cols[j] = cols[j].WithStyle(&props.Cell{BackgroundColor: altBg})
			}
		}
		m.AddRows(row.New(7).Add(cols...))
	}
	m.AddRows(row.New(4))
}

func addPDFTotals(m core.Maroto, doc Document) {
	b := doc.Estimate.Breakdown
	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	value := props.Text{Size: 9, Align: align.Right}

	rows := []summaryRow{
		{"Subtotal", b.Subtotal},
		{"Markup (" + format.Percent(b.MarkupRate) + ")", b.MarkupAmount},
		{"Grand Total", b.GrandTotal},
	}
	if d := doc.Estimate.Discount; d.Applied() {
		rows = append(rows,
			summaryRow{"Discount (" + format.Percent(d.Rate) + ")", -d.Amount},
			summaryRow{"Final Total", d.Total},
		)
	}
	for _, r := range rows {
		m.AddRows(row.New(6).Add(
			col.New(8).Add(text.New(r.label, label)),
			col.New(4).Add(text.New(format.Currency(r.value), value)),
		))
	}
	m.AddRows(row.New(6).Add(
		col.New(8).Add(text.New("Price per sq ft", label)),
		col.New(4).Add(text.New(format.Currency(b.PricePerSqFt), value)),
	))
	m.AddRows(row.New(6))
}

func addPDFSchedule(m core.Maroto, doc Document) {
	e := doc.Estimate
	m.AddRows(row.New(8).Add(
		col.New(12).Add(text.New("PAYMENT SCHEDULE", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left, Color: grey})),
	))

	left := props.Text{Size: 8, Align: align.Left}
	right := props.Text{Size: 8, Align: align.Right}
	line := func(name, percent string, amount float64) core.Row {
		return row.New(6).Add(
			col.New(7).Add(text.New(name, left)),
			col.New(2).Add(text.New(percent, right)),
			col.New(3).Add(text.New(format.WholeCurrency(amount), right)),
		)
	}

	if e.DesignFee > 0 {
		m.AddRows(line("Design Services", "", e.DesignFee))
	}
	m.AddRows(line("Deposit", "", e.Deposit))
	for _, p := range e.Milestones {
		m.AddRows(line(p.Name, format.Percent(p.Percentage/100), p.Amount))
	}
}
