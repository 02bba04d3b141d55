package proposal

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/adu-proposal/internal/milestone"
	"github.com/iwvelando/adu-proposal/internal/pricing"
	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"github.com/iwvelando/adu-proposal/internal/templating"
	"github.com/iwvelando/adu-proposal/pkg/datetime"
	"github.com/iwvelando/adu-proposal/pkg/format"
	"go.uber.org/zap"
)

// DefaultTemplate is the built-in client proposal document.
//
//go:embed templates/proposal.html
var DefaultTemplate string

// proposalNamespace seeds name-based proposal IDs.
var proposalNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:adu-proposal:proposal"))

// Company is the contractor named on the proposal.
type Company struct {
	Name    string `mapstructure:"name" json:"name"`
	Phone   string `mapstructure:"phone" json:"phone"`
	Email   string `mapstructure:"email" json:"email"`
	License string `mapstructure:"license" json:"license"`
}

// Proposal is a rendered client document and everything used to build it.
// Variables hold the HTML-escaped values substituted into the template.
type Proposal struct {
	Number     string               `json:"number"`
	Issued     time.Time            `json:"issued"`
	ValidUntil time.Time            `json:"validUntil"`
	Form       Form                 `json:"form"`
	Estimate   Estimate             `json:"estimate"`
	Variables  templating.Variables `json:"variables"`
	HTML       string               `json:"html"`
}

// Assembler runs the pipeline from form state to rendered document. It is
// safe for concurrent use.
type Assembler struct {
	logger    *zap.Logger
	pricing   *pricing.Engine
	scheduler *milestone.Scheduler
	templates *templating.Engine
	company   Company
	now       func() time.Time
}

// NewAssembler wires the pricing engine, scheduler and template engine.
func NewAssembler(logger *zap.Logger, options templating.Options, company Company) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		logger:    logger,
		pricing:   pricing.NewEngine(logger),
		scheduler: milestone.NewScheduler(logger),
		templates: templating.NewEngine(logger, options),
		company:   company,
		now:       time.Now,
	}
}

// Assemble prices the form and renders template. An empty template renders
// DefaultTemplate.
func (a *Assembler) Assemble(form Form, cfg pricingconfig.Configuration, template string) (Proposal, error) {
	inputs, err := form.Inputs()
	if err != nil {
		return Proposal{}, err
	}
	estimate, err := a.Estimate(inputs, cfg)
	if err != nil {
		return Proposal{}, err
	}

	issued, err := datetime.ParseISODate(form.ProposalDate)
	if err != nil {
		return Proposal{}, &pricing.ValidationError{Field: "proposalDate", Reason: err.Error()}
	}
	if issued.IsZero() {
		issued = datetime.StartOfDay(a.now())
	}

	number, err := proposalNumber(form, issued)
	if err != nil {
		return Proposal{}, err
	}

	p := Proposal{
		Number:     number,
		Issued:     issued,
		ValidUntil: datetime.ValidUntil(issued, cfg.BusinessSettings.ProposalValidityDays),
		Form:       form,
		Estimate:   estimate,
	}
	p.Variables = a.variables(p, cfg)

	if template == "" {
		template = DefaultTemplate
	}
	p.HTML = a.templates.Render(template, p.Variables, data(p))

	a.logger.Info("assembled proposal",
		zap.String("op", "proposal.Assemble"),
		zap.String("number", p.Number),
		zap.String("client", form.Client.Name),
		zap.Float64("total", estimate.Discount.Total),
	)
	return p, nil
}

// proposalNumber derives the number from the form and issue date, so the
// same form always gets the same number.
func proposalNumber(form Form, issued time.Time) (string, error) {
	canonical, err := json.Marshal(form)
	if err != nil {
		return "", fmt.Errorf("encode form for proposal number: %w", err)
	}
	name := append([]byte(issued.Format("2006-01-02")+"\n"), canonical...)
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewSHA1(proposalNamespace, name).String(), "-", ""))
	return fmt.Sprintf("ADU-%s-%s", issued.Format("20060102"), id[:8]), nil
}

// variables builds the flat placeholder map. Every value is display-ready
// and HTML-escaped.
func (a *Assembler) variables(p Proposal, cfg pricingconfig.Configuration) templating.Variables {
	e := p.Estimate
	b := e.Breakdown
	client := p.Form.Client

	v := templating.Variables{
		"COMPANY_NAME":        a.company.Name,
		"COMPANY_PHONE":       a.company.Phone,
		"COMPANY_EMAIL":       a.company.Email,
		"COMPANY_LICENSE":     a.company.License,
		"CLIENT_NAME":         client.Name,
		"CLIENT_EMAIL":        client.Email,
		"CLIENT_PHONE":        client.Phone,
		"CLIENT_ADDRESS":      client.Address,
		"CITY":                client.City,
		"PROPOSAL_NUMBER":     p.Number,
		"PROPOSAL_DATE":       datetime.ProposalDate(p.Issued),
		"VALID_UNTIL":         datetime.ProposalDate(p.ValidUntil),
		"VALIDITY_DAYS":       strconv.Itoa(cfg.BusinessSettings.ProposalValidityDays),
		"ADU_TYPE":            aduTypeName(e.Inputs, cfg),
		"STORIES":             strconv.Itoa(storiesOf(e.Inputs)),
		"SQUARE_FOOTAGE":      format.SquareFeet(e.Inputs.SquareFootage),
		"BEDROOMS":            strconv.Itoa(e.Inputs.Bedrooms),
		"BATHROOMS":           strconv.Itoa(e.Inputs.Bathrooms),
		"WATER_METER":         meterLabel(e.Inputs.Utilities.WaterMeter),
		"GAS_METER":           meterLabel(e.Inputs.Utilities.GasMeter),
		"ELECTRIC_METER":      meterLabel(e.Inputs.Utilities.ElectricMeter()),
		"BASE_COST":           format.WholeCurrency(b.CategoryTotal(pricing.BaseConstruction)),
		"DESIGN_FEE":          format.WholeCurrency(e.DesignFee),
		"ADDONS_TOTAL":        format.WholeCurrency(b.CategoryTotal(pricing.AddOns)),
		"SUBTOTAL":            format.WholeCurrency(b.Subtotal),
		"MARKUP_RATE":         format.Percent(b.MarkupRate),
		"MARKUP_AMOUNT":       format.WholeCurrency(b.MarkupAmount),
		"GRAND_TOTAL":         format.WholeCurrency(b.GrandTotal),
		"DISCOUNT_RATE":       format.Percent(e.Discount.Rate),
		"DISCOUNT_AMOUNT":     format.WholeCurrency(e.Discount.Amount),
		"FINAL_TOTAL":         format.WholeCurrency(e.Discount.Total),
		"PRICE_PER_SQFT":      format.Currency(e.Discount.Total / e.Inputs.SquareFootage),
		"DEPOSIT":             format.WholeCurrency(e.Deposit),
		"CONSTRUCTION_AMOUNT": format.WholeCurrency(e.ConstructionAmount),
		"PROJECT_NOTES":       p.Form.Project.Notes,
	}
	if len(b.LineItems) > 0 {
		v["BASE_PRICE_PER_SQFT"] = format.Currency(b.LineItems[0].UnitPrice)
	}
	for i, m := range e.Milestones {
		prefix := fmt.Sprintf("MILESTONE_%d_", i+1)
		v[prefix+"NAME"] = m.Name
		v[prefix+"PERCENT"] = format.Percent(m.Percentage / 100)
		v[prefix+"AMOUNT"] = format.WholeCurrency(m.Amount)
	}
	for name, value := range v {
		v[name] = html.EscapeString(value)
	}
	return v
}

// data builds the structured object conditions and loops read. Strings are
// HTML-escaped like the variables.
func data(p Proposal) map[string]any {
	e := p.Estimate
	b := e.Breakdown

	lineItems := make([]map[string]any, 0, len(b.LineItems))
	var addOns []map[string]any
	for _, item := range b.LineItems {
		row := map[string]any{
			"category":    string(item.Category),
			"description": html.EscapeString(item.Description),
			"quantity":    quantityLabel(item),
			"unitPrice":   format.Currency(item.UnitPrice),
			"total":       format.WholeCurrency(item.TotalPrice),
			"isOptional":  item.IsOptional,
		}
		lineItems = append(lineItems, row)
		if item.Category == pricing.AddOns {
			addOns = append(addOns, row)
		}
	}

	milestones := make([]map[string]any, 0, len(e.Milestones))
	for i, m := range e.Milestones {
		milestones = append(milestones, map[string]any{
			"number":     i + 1,
			"code":       html.EscapeString(m.Code),
			"name":       html.EscapeString(m.Name),
			"percentage": format.Percent(m.Percentage / 100),
			"amount":     format.WholeCurrency(m.Amount),
		})
	}

	return map[string]any{
		"HAS_DESIGN":    e.Inputs.NeedsDesign,
		"HAS_ADDONS":    len(addOns) > 0,
		"HAS_DISCOUNT":  e.Discount.Applied(),
		"HAS_OVERRIDES": len(b.Overrides) > 0,
		"HAS_NOTES":     strings.TrimSpace(p.Form.Project.Notes) != "",
		"HAS_SEPARATE_METERS": e.Inputs.Utilities.WaterMeter == pricing.Separate ||
			e.Inputs.Utilities.GasMeter == pricing.Separate,
		"client":     escapedClient(p.Form.Client),
		"lineItems":  lineItems,
		"addOns":     addOns,
		"milestones": milestones,
		"overrides":  escapeAll(b.Overrides),
	}
}

func escapedClient(c Client) map[string]any {
	return map[string]any{
		"name":    html.EscapeString(c.Name),
		"email":   html.EscapeString(c.Email),
		"phone":   html.EscapeString(c.Phone),
		"address": html.EscapeString(c.Address),
		"city":    html.EscapeString(c.City),
	}
}

func escapeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = html.EscapeString(v)
	}
	return out
}

func aduTypeName(inputs pricing.Inputs, cfg pricingconfig.Configuration) string {
	if entry, ok := cfg.LookupADUType(inputs.ADUType, inputs.Stories); ok {
		return entry.Name
	}
	return string(inputs.ADUType)
}

func storiesOf(inputs pricing.Inputs) int {
	if inputs.ADUType == pricingconfig.Attached || inputs.Stories == 0 {
		return 1
	}
	return inputs.Stories
}

func meterLabel(s pricing.MeterSelection) string {
	if s == pricing.Separate {
		return "Separate"
	}
	return "Shared"
}

func quantityLabel(item pricing.LineItem) string {
	if item.Category == pricing.BaseConstruction {
		return format.SquareFeet(item.Quantity)
	}
	return strconv.FormatFloat(item.Quantity, 'f', -1, 64)
}
