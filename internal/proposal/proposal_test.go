package proposal

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/adu-proposal/internal/pricing"
	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"github.com/iwvelando/adu-proposal/internal/templating"
	"github.com/iwvelando/adu-proposal/pkg/testutil"
	"go.uber.org/zap"
)

const formYAML = `
client:
  name: Jordan Rivera
  email: jordan@example.com
  phone: 555-0100
  address: 12 Elm St
  city: Portland
project:
  squareFootage: 600
  aduType: Detached
  stories: 1
  bedrooms: 1
  bathrooms: 1
  waterMeter: separate
  gasMeter: shared
  needsDesign: true
  addOns: [driveway, NotARealAddOn]
  friendsAndFamilyDiscount: true
  notes: Keep the oak tree.
proposalDate: "2026-03-04"
`

func testAssembler() *Assembler {
	a := NewAssembler(zap.NewNop(), templating.Options{StrictValidation: true}, Company{
		Name:    "Cedar Build Co",
		Phone:   "555-0199",
		Email:   "hello@cedar.example",
		License: "CCB 123456",
	})
	a.now = func() time.Time { return time.Date(2026, 6, 1, 15, 4, 5, 0, time.UTC) }
	return a
}

func TestLoadForm(t *testing.T) {
	f, err := ParseForm([]byte(formYAML))
	if err != nil {
		t.Fatalf("ParseForm() error = %v", err)
	}
	if f.Client.Name != "Jordan Rivera" || f.Project.SquareFootage != 600 || len(f.Project.AddOns) != 2 {
		t.Errorf("ParseForm() = %+v", f)
	}

	tests := []struct {
		name string
		doc  string
	}{
		{"Unknown field", "project:\n  squareFeet: 600\n"},
		{"Empty document", ""},
		{"Wrong type", "project:\n  bedrooms: two\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseForm([]byte(tt.doc)); err == nil {
				t.Error("ParseForm() expected error but got none")
			}
		})
	}
}

func TestFormInputs(t *testing.T) {
	f, _ := ParseForm([]byte(formYAML))
	inputs, err := f.Inputs()
	if err != nil {
		t.Fatalf("Inputs() error = %v", err)
	}
	if inputs.ADUType != pricingconfig.Detached || inputs.Utilities.WaterMeter != pricing.Separate || inputs.Utilities.GasMeter != pricing.Shared {
		t.Errorf("Inputs() = %+v", inputs)
	}

	tests := []struct {
		name   string
		mutate func(p *Project)
		field  string
	}{
		{"Unknown ADU type", func(p *Project) { p.ADUType = "tiny house" }, "aduType"},
		{"Unknown water meter", func(p *Project) { p.WaterMeter = "metered" }, "waterMeter"},
		{"Unknown gas meter", func(p *Project) { p.GasMeter = "propane" }, "gasMeter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := f
			tt.mutate(&bad.Project)
			_, err := bad.Inputs()
			var validationErr *pricing.ValidationError
			if !errors.As(err, &validationErr) || validationErr.Field != tt.field {
				t.Errorf("Inputs() error = %v, expected ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestEstimate(t *testing.T) {
	f, _ := ParseForm([]byte(formYAML))
	inputs, _ := f.Inputs()

	e, err := testAssembler().Estimate(inputs, pricingconfig.Defaults())
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if e.Breakdown.GrandTotal != 174075 {
		t.Errorf("GrandTotal = %v, expected 174075", e.Breakdown.GrandTotal)
	}
	if e.Discount.Total != 156667.5 {
		t.Errorf("discounted total = %v, expected 156667.5", e.Discount.Total)
	}
	if e.DesignFee != 12500 || e.Deposit != 1000 {
		t.Errorf("design fee %v deposit %v, expected 12500 and 1000", e.DesignFee, e.Deposit)
	}
	if e.ConstructionAmount != 143167.5 {
		t.Errorf("ConstructionAmount = %v, expected 143167.5", e.ConstructionAmount)
	}
	if len(e.Milestones) != 7 {
		t.Fatalf("expected 7 milestones, got %d", len(e.Milestones))
	}
	if got := testutil.FindMilestone(e.Milestones, "MOB"); got == nil || got.Amount != 26000 {
		t.Errorf("Mobilization = %+v, expected 26000", got)
	}
	if got := testutil.FindMilestone(e.Milestones, "FIN"); got == nil || got.Amount != 6167.5 {
		t.Errorf("Final Completion = %+v, expected 6167.5", got)
	}
}

func TestEstimateWithoutDiscountOrDesign(t *testing.T) {
	inputs := pricing.Inputs{SquareFootage: 600, ADUType: pricingconfig.Detached}
	e, err := testAssembler().Estimate(inputs, pricingconfig.Defaults())
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if e.Discount.Applied() || e.Discount.Total != e.Breakdown.GrandTotal {
		t.Errorf("no discount expected, got %+v", e.Discount)
	}
	if e.DesignFee != 0 || e.ConstructionAmount != 150800 {
		t.Errorf("design fee %v construction %v, expected 0 and 150800", e.DesignFee, e.ConstructionAmount)
	}
}

func TestEstimateValidationError(t *testing.T) {
	_, err := testAssembler().Estimate(pricing.Inputs{SquareFootage: -1, ADUType: pricingconfig.Detached}, pricingconfig.Defaults())
	var validationErr *pricing.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("Estimate() error = %v, expected a ValidationError", err)
	}
}

func TestAssemble(t *testing.T) {
	f, _ := ParseForm([]byte(formYAML))
	p, err := testAssembler().Assemble(f, pricingconfig.Defaults(), "")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if !regexp.MustCompile(`^ADU-20260304-[0-9A-F]{8}$`).MatchString(p.Number) {
		t.Errorf("Number = %q, expected ADU-20260304- and eight hex digits", p.Number)
	}
	expectedVars := map[string]string{
		"CLIENT_NAME":         "Jordan Rivera",
		"COMPANY_NAME":        "Cedar Build Co",
		"PROPOSAL_DATE":       "March 4, 2026",
		"VALID_UNTIL":         "April 3, 2026",
		"ADU_TYPE":            "Detached ADU - Single Story",
		"SQUARE_FOOTAGE":      "600 sq ft",
		"WATER_METER":         "Separate",
		"GAS_METER":           "Shared",
		"ELECTRIC_METER":      "Separate",
		"GRAND_TOTAL":         "$174,075",
		"MARKUP_RATE":         "15%",
		"DISCOUNT_RATE":       "10%",
		"FINAL_TOTAL":         "$156,668",
		"MILESTONE_1_NAME":    "Mobilization",
		"MILESTONE_1_AMOUNT":  "$26,000",
		"MILESTONE_1_PERCENT": "18%",
		"MILESTONE_7_AMOUNT":  "$6,168",
	}
	for key, want := range expectedVars {
		if got := p.Variables[key]; got != want {
			t.Errorf("Variables[%s] = %q, expected %q", key, got, want)
		}
	}

	for _, want := range []string{
		"Jordan Rivera",
		"Driveway",
		"Water Meter (separate)",
		"Design Services <span class=\"muted\">(optional)</span>",
		"Friends &amp; family discount (10%)",
		"1. Mobilization",
		"7. Final Completion",
		"Keep the oak tree.",
	} {
		if !strings.Contains(p.HTML, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	for _, unwanted := range []string{"{{", "}}", "<!--", "NotARealAddOn", "custom pricing"} {
		if strings.Contains(p.HTML, unwanted) {
			t.Errorf("HTML should not contain %q", unwanted)
		}
	}
}

func TestAssembleDefaultsIssueDateToToday(t *testing.T) {
	f, _ := ParseForm([]byte(formYAML))
	f.ProposalDate = ""
	p, err := testAssembler().Assemble(f, pricingconfig.Defaults(), "{{PROPOSAL_DATE}}")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if p.HTML != "June 1, 2026" {
		t.Errorf("HTML = %q, expected today's date", p.HTML)
	}
	if !p.Issued.Equal(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Issued = %v, expected the start of today", p.Issued)
	}
}

func TestAssembleBadDate(t *testing.T) {
	f, _ := ParseForm([]byte(formYAML))
	f.ProposalDate = "03/04/2026"
	_, err := testAssembler().Assemble(f, pricingconfig.Defaults(), "")
	var validationErr *pricing.ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "proposalDate" {
		t.Errorf("Assemble() error = %v, expected a proposalDate ValidationError", err)
	}
}

func TestDefaultTemplateVariablesAreProvided(t *testing.T) {
	f, _ := ParseForm([]byte(formYAML))
	p, err := testAssembler().Assemble(f, pricingconfig.Defaults(), "")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	for _, name := range templating.Placeholders(DefaultTemplate) {
		if _, ok := p.Variables[name]; !ok {
			t.Errorf("default template uses %s but no variable provides it", name)
		}
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	f, _ := ParseForm([]byte(formYAML))
	a := NewAssembler(nil, templating.Options{}, Company{Name: "Cedar Build Co"})
	first, err := a.Assemble(f, pricingconfig.Defaults(), "")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	second, err := NewAssembler(nil, templating.Options{}, Company{Name: "Cedar Build Co"}).Assemble(f, pricingconfig.Defaults(), "")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if first.Number != second.Number {
		t.Errorf("Number = %q then %q, expected the same number for the same form", first.Number, second.Number)
	}
	if first.HTML != second.HTML {
		t.Error("identical inputs should render byte-identical HTML")
	}
}

func TestProposalNumberFollowsForm(t *testing.T) {
	f, _ := ParseForm([]byte(formYAML))
	issued := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	base, err := proposalNumber(f, issued)
	if err != nil {
		t.Fatalf("proposalNumber() error = %v", err)
	}

	other := f
	other.Client.Name = "Sam Lee"
	tests := []struct {
		name   string
		form   Form
		issued time.Time
	}{
		{"Different client", other, issued},
		{"Different issue date", f, issued.AddDate(0, 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := proposalNumber(tt.form, tt.issued)
			if err != nil {
				t.Fatalf("proposalNumber() error = %v", err)
			}
			if got == base {
				t.Errorf("proposalNumber() = %q, expected a number different from %q", got, base)
			}
		})
	}
}

func TestAssembleEscapesHTML(t *testing.T) {
	f, _ := ParseForm([]byte(formYAML))
	f.Client.Name = `Smith & <script>alert(1)</script> "Co"`
	f.Client.Address = "12 <b>Elm</b> St"
	f.Project.Notes = "<img src=x onerror=alert(2)>"

	cfg := pricingconfig.Defaults()
	for i := range cfg.AddOnOptions {
		if cfg.AddOnOptions[i].Name == "Driveway" {
			cfg.AddOnOptions[i].Name = "Driveway <i>paved</i>"
		}
	}
	f.Project.AddOns = []string{"Driveway <i>paved</i>"}

	a := NewAssembler(nil, templating.Options{}, Company{Name: "Cedar & Sons"})
	p, err := a.Assemble(f, cfg, "")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	for _, raw := range []string{"<script>", "<img", "<b>", "<i>", "Cedar & Sons", `"Co"`} {
		if strings.Contains(p.HTML, raw) {
			t.Errorf("HTML contains unescaped %q", raw)
		}
	}
	for _, want := range []string{
		"Smith &amp; &lt;script&gt;alert(1)&lt;/script&gt; &#34;Co&#34;",
		"12 &lt;b&gt;Elm&lt;/b&gt; St",
		"&lt;img src=x onerror=alert(2)&gt;",
		"Driveway &lt;i&gt;paved&lt;/i&gt;",
		"Cedar &amp; Sons",
	} {
		if !strings.Contains(p.HTML, want) {
			t.Errorf("HTML missing escaped %q", want)
		}
	}

	client, ok := data(p)["client"].(map[string]any)
	if !ok || strings.Contains(client["name"].(string), "<script>") {
		t.Errorf("structured client data is not escaped: %v", data(p)["client"])
	}
}
