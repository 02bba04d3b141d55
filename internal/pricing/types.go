// Package pricing turns a set of ADU project choices and a pricing
// configuration snapshot into a line-itemized price breakdown.
package pricing

import (
	"fmt"
	"strings"

	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"github.com/iwvelando/adu-proposal/pkg/mathutil"
)

// MeterSelection is how a utility meter is provisioned for the unit.
type MeterSelection string

const (
	// Shared meters piggyback on the primary residence at no charge.
	Shared MeterSelection = "shared"
	// Separate meters are a new connection priced per the utility option.
	Separate MeterSelection = "separate"
)

// ParseMeterSelection accepts the enum value case-insensitively. An empty
// value means shared.
func ParseMeterSelection(value string) (MeterSelection, error) {
	switch MeterSelection(strings.ToLower(strings.TrimSpace(value))) {
	case Shared, "":
		return Shared, nil
	case Separate:
		return Separate, nil
	default:
		return "", fmt.Errorf("unknown meter selection %q, expected %s or %s", value, Shared, Separate)
	}
}

// Category groups line items. Markup applies to every category except
// DesignServices.
type Category string

const (
	BaseConstruction Category = "BaseConstruction"
	DesignServices   Category = "DesignServices"
	AddOns           Category = "AddOns"
)

// Utilities are the meter choices for the project. Electric service is
// always a separate meter.
type Utilities struct {
	WaterMeter MeterSelection `json:"waterMeter" yaml:"waterMeter"`
	GasMeter   MeterSelection `json:"gasMeter" yaml:"gasMeter"`
}

// ElectricMeter is fixed by policy.
func (Utilities) ElectricMeter() MeterSelection {
	return Separate
}

// Overrides replace configured prices for a single calculation.
type Overrides struct {
	BasePricePerSqFt *float64           `json:"basePricePerSqFt,omitempty" yaml:"basePricePerSqFt,omitempty"`
	DesignServices   *float64           `json:"designServices,omitempty" yaml:"designServices,omitempty"`
	AddOnPrices      map[string]float64 `json:"addOnPrices,omitempty" yaml:"addOnPrices,omitempty"`
	MarkupPercentage *float64           `json:"markupPercentage,omitempty" yaml:"markupPercentage,omitempty"`
}

// Inputs are the project choices for one calculation.
type Inputs struct {
	SquareFootage            float64               `json:"squareFootage" yaml:"squareFootage"`
	ADUType                  pricingconfig.ADUType `json:"aduType" yaml:"aduType"`
	Stories                  int                   `json:"stories,omitempty" yaml:"stories,omitempty"`
	Bedrooms                 int                   `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms                int                   `json:"bathrooms" yaml:"bathrooms"`
	Utilities                Utilities             `json:"utilities" yaml:"utilities"`
	NeedsDesign              bool                  `json:"needsDesign" yaml:"needsDesign"`
	SelectedAddOns           []string              `json:"selectedAddOns,omitempty" yaml:"selectedAddOns,omitempty"`
	FriendsAndFamilyDiscount bool                  `json:"friendsAndFamilyDiscount" yaml:"friendsAndFamilyDiscount"`
	PriceOverrides           *Overrides            `json:"priceOverrides,omitempty" yaml:"priceOverrides,omitempty"`
}

// LineItem is one priced row of a breakdown.
type LineItem struct {
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   float64  `json:"unitPrice"`
	TotalPrice  float64  `json:"totalPrice"`
	IsOptional  bool     `json:"isOptional"`
}

// Breakdown is the priced result of a calculation.
type Breakdown struct {
	LineItems            []LineItem `json:"lineItems"`
	Subtotal             float64    `json:"subtotal"`
	ConstructionSubtotal float64    `json:"constructionSubtotal"`
	MarkupRate           float64    `json:"markupRate"`
	MarkupAmount         float64    `json:"markupAmount"`
	GrandTotal           float64    `json:"grandTotal"`
	PricePerSqFt         float64    `json:"pricePerSqFt"`
	SquareFootage        float64    `json:"squareFootage"`
	// Overrides names each configured price replaced for this calculation.
	Overrides []string `json:"overrides,omitempty"`
}

// Recompute derives the totals from LineItems, MarkupRate and SquareFootage.
// Calculate returns breakdowns whose totals already equal Recompute's.
func (b Breakdown) Recompute() Breakdown {
	totals := make([]float64, 0, len(b.LineItems))
	construction := make([]float64, 0, len(b.LineItems))
	for _, item := range b.LineItems {
		totals = append(totals, item.TotalPrice)
		if item.Category != DesignServices {
			construction = append(construction, item.TotalPrice)
		}
	}

	b.Subtotal = mathutil.Sum(totals...)
	b.ConstructionSubtotal = mathutil.Sum(construction...)
	b.MarkupAmount = mathutil.Multiply(b.ConstructionSubtotal, b.MarkupRate)
	b.GrandTotal = mathutil.Sum(b.Subtotal, b.MarkupAmount)
	if b.SquareFootage > 0 {
		b.PricePerSqFt = b.GrandTotal / b.SquareFootage
	}
	return b
}

// ItemsIn returns the line items of one category in order.
func (b Breakdown) ItemsIn(category Category) []LineItem {
	var items []LineItem
	for _, item := range b.LineItems {
		if item.Category == category {
			items = append(items, item)
		}
	}
	return items
}

// CategoryTotal sums the line items of one category.
func (b Breakdown) CategoryTotal(category Category) float64 {
	var totals []float64
	for _, item := range b.ItemsIn(category) {
		totals = append(totals, item.TotalPrice)
	}
	return mathutil.Sum(totals...)
}

// ValidationError reports an input that cannot be priced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
