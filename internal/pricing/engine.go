package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"github.com/iwvelando/adu-proposal/pkg/constants"
	"github.com/iwvelando/adu-proposal/pkg/mathutil"
	"go.uber.org/zap"
)

// addOnAliases maps proposal form keys to canonical add-on names.
var addOnAliases = map[string]string{
	"bathroom":    "Extra Bathroom",
	"driveway":    "Driveway",
	"landscaping": "Basic Landscaping",
}

// CanonicalAddOn resolves a form key through the alias table. Names without
// an alias are returned unchanged.
func CanonicalAddOn(name string) string {
	if canonical, ok := addOnAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return canonical
	}
	return name
}

// Engine prices ADU projects. An Engine holds no state besides its logger and
// is safe for concurrent use.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a pricing engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Calculate prices inputs against the configuration snapshot. Line items are
// appended in a fixed order: base construction, design services, utility
// connections, then add-ons in selection order.
func (e *Engine) Calculate(inputs Inputs, cfg pricingconfig.Configuration) (Breakdown, error) {
	if err := validateInputs(inputs); err != nil {
		return Breakdown{}, err
	}

	overrides := inputs.PriceOverrides
	if overrides == nil {
		overrides = &Overrides{}
	}

	b := Breakdown{SquareFootage: inputs.SquareFootage}

	base, err := e.baseConstruction(inputs, overrides, cfg, &b)
	if err != nil {
		return Breakdown{}, err
	}
	b.LineItems = append(b.LineItems, base)

	if inputs.NeedsDesign {
		b.LineItems = append(b.LineItems, designServices(overrides, cfg, &b))
	}

	b.LineItems = append(b.LineItems, e.utilityConnections(inputs.Utilities, cfg)...)
	b.LineItems = append(b.LineItems, e.addOns(inputs.SelectedAddOns, overrides, cfg, &b)...)

	b.MarkupRate = cfg.BusinessSettings.StandardMarkupRate
	if overrides.MarkupPercentage != nil {
		b.MarkupRate = *overrides.MarkupPercentage
		b.Overrides = append(b.Overrides, "markup")
	}

	b = b.Recompute()

	e.logger.Debug("calculated price breakdown",
		zap.String("op", "pricing.Calculate"),
		zap.String("aduType", string(inputs.ADUType)),
		zap.Float64("squareFootage", inputs.SquareFootage),
		zap.Int("lineItems", len(b.LineItems)),
		zap.Float64("grandTotal", b.GrandTotal),
	)

	return b, nil
}

func (e *Engine) baseConstruction(inputs Inputs, overrides *Overrides, cfg pricingconfig.Configuration, b *Breakdown) (LineItem, error) {
	entry, ok := cfg.LookupADUType(inputs.ADUType, inputs.Stories)
	if !ok {
		return LineItem{}, &ValidationError{
			Field:  "aduType",
			Reason: fmt.Sprintf("no pricing configured for %s with %d stories", inputs.ADUType, storiesFor(inputs)),
		}
	}

	rate := entry.PricePerSqFt
	description := entry.Name
	overridden := false
	if overrides.BasePricePerSqFt != nil {
		rate = *overrides.BasePricePerSqFt
		overridden = true
	}

	if inputs.SquareFootage < float64(cfg.BusinessSettings.MinSizeForStandardPricingSqFt) {
		// Small units are always priced at the premium rate, overrides included.
		if overridden {
			e.logger.Info("small unit premium replaces base rate override",
				zap.String("op", "pricing.baseConstruction"),
				zap.Float64("override", rate),
				zap.Float64("premiumRate", cfg.BusinessSettings.SmallUnitPremiumRate),
			)
		}
		rate = cfg.BusinessSettings.SmallUnitPremiumRate
		description += " (small unit premium)"
	} else if overridden {
		description += constants.OverrideMarker
		b.Overrides = append(b.Overrides, "basePricePerSqFt")
	}

	return LineItem{
		Category:    BaseConstruction,
		Description: description,
		Quantity:    inputs.SquareFootage,
		UnitPrice:   rate,
		TotalPrice:  mathutil.Multiply(inputs.SquareFootage, rate),
	}, nil
}

func designServices(overrides *Overrides, cfg pricingconfig.Configuration, b *Breakdown) LineItem {
	fee := cfg.DesignServiceFee
	description := "Design Services"
	if overrides.DesignServices != nil {
		fee = *overrides.DesignServices
		description += constants.OverrideMarker
		b.Overrides = append(b.Overrides, "designServices")
	}
	return LineItem{
		Category:    DesignServices,
		Description: description,
		Quantity:    1,
		UnitPrice:   fee,
		TotalPrice:  fee,
		IsOptional:  true,
	}
}

type meter struct {
	name      string
	selection MeterSelection
}

func (e *Engine) utilityConnections(utilities Utilities, cfg pricingconfig.Configuration) []LineItem {
	selections := []meter{
		{pricingconfig.UtilityWater, utilities.WaterMeter},
		{pricingconfig.UtilityGas, utilities.GasMeter},
	}
	if cfg.BusinessSettings.IncludeElectricMeterLineItem {
		selections = append(selections, meter{pricingconfig.UtilityElectric, utilities.ElectricMeter()})
	}

	var items []LineItem
	for _, s := range selections {
		if s.selection != Separate {
			continue
		}
		option, ok := cfg.Utility(s.name)
		if !ok {
			e.logger.Warn("separate meter selected but no utility option is configured",
				zap.String("op", "pricing.utilityConnections"),
				zap.String("utility", s.name),
			)
			continue
		}
		items = append(items, LineItem{
			Category:    AddOns,
			Description: fmt.Sprintf("%s (separate)", option.Name),
			Quantity:    1,
			UnitPrice:   option.SeparatePrice,
			TotalPrice:  option.SeparatePrice,
		})
	}
	return items
}

func (e *Engine) addOns(selected []string, overrides *Overrides, cfg pricingconfig.Configuration, b *Breakdown) []LineItem {
	var items []LineItem
	seen := make(map[string]bool)
	for _, raw := range selected {
		option, ok := cfg.AddOn(CanonicalAddOn(raw))
		if !ok {
			option, ok = cfg.AddOn(raw)
		}
		if !ok {
			e.logger.Warn("skipping unknown add-on",
				zap.String("op", "pricing.addOns"),
				zap.String("addOn", raw),
			)
			continue
		}
		if seen[option.Name] {
			continue
		}
		seen[option.Name] = true

		price := option.Price
		description := option.Name
		if override, ok := lookupAddOnOverride(overrides.AddOnPrices, raw, option.Name); ok {
			price = override
			description += constants.OverrideMarker
			b.Overrides = append(b.Overrides, "addOn:"+option.Name)
		}

		items = append(items, LineItem{
			Category:    AddOns,
			Description: description,
			Quantity:    1,
			UnitPrice:   price,
			TotalPrice:  price,
			IsOptional:  true,
		})
	}
	return items
}

// lookupAddOnOverride prefers the key the caller selected with, then the
// canonical name.
func lookupAddOnOverride(prices map[string]float64, raw, canonical string) (float64, bool) {
	if price, ok := prices[raw]; ok {
		return price, true
	}
	price, ok := prices[canonical]
	return price, ok
}

func storiesFor(inputs Inputs) int {
	if inputs.ADUType == pricingconfig.Detached && inputs.Stories == 0 {
		return 1
	}
	return inputs.Stories
}

func validateInputs(inputs Inputs) error {
	if math.IsNaN(inputs.SquareFootage) || math.IsInf(inputs.SquareFootage, 0) || inputs.SquareFootage <= 0 {
		return &ValidationError{Field: "squareFootage", Reason: fmt.Sprintf("must be a positive number, got %v", inputs.SquareFootage)}
	}
	switch inputs.ADUType {
	case pricingconfig.Detached:
		if inputs.Stories != 0 && inputs.Stories != 1 && inputs.Stories != 2 {
			return &ValidationError{Field: "stories", Reason: fmt.Sprintf("detached units have 1 or 2 stories, got %d", inputs.Stories)}
		}
	case pricingconfig.Attached:
	default:
		return &ValidationError{Field: "aduType", Reason: fmt.Sprintf("unknown ADU type %q", inputs.ADUType)}
	}
	if inputs.Bedrooms < 0 {
		return &ValidationError{Field: "bedrooms", Reason: "must not be negative"}
	}
	if inputs.Bathrooms < 0 {
		return &ValidationError{Field: "bathrooms", Reason: "must not be negative"}
	}
	for _, s := range []MeterSelection{inputs.Utilities.WaterMeter, inputs.Utilities.GasMeter} {
		if s != "" && s != Shared && s != Separate {
			return &ValidationError{Field: "utilities", Reason: fmt.Sprintf("unknown meter selection %q", s)}
		}
	}

	o := inputs.PriceOverrides
	if o == nil {
		return nil
	}
	if o.BasePricePerSqFt != nil && !validPrice(*o.BasePricePerSqFt) {
		return &ValidationError{Field: "priceOverrides.basePricePerSqFt", Reason: "must not be negative"}
	}
	if o.DesignServices != nil && !validPrice(*o.DesignServices) {
		return &ValidationError{Field: "priceOverrides.designServices", Reason: "must not be negative"}
	}
	for name, price := range o.AddOnPrices {
		if !validPrice(price) {
			return &ValidationError{Field: "priceOverrides.addOnPrices", Reason: fmt.Sprintf("%s must not be negative", name)}
		}
	}
	if o.MarkupPercentage != nil {
		if m := *o.MarkupPercentage; math.IsNaN(m) || m < 0 || m > 1 {
			return &ValidationError{Field: "priceOverrides.markupPercentage", Reason: fmt.Sprintf("must be between 0 and 1, got %v", m)}
		}
	}
	return nil
}

func validPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
