// Package pricingconfig defines the pricing configuration consumed by the
// pricing engine and milestone scheduler, its defaults, validation and the
// versioned JSON document it is persisted as.
package pricingconfig

import (
	"fmt"
	"strings"
	"time"
)

// ADUType is the construction style of the unit.
type ADUType string

const (
	// Detached units stand alone on the lot and may have one or two stories.
	Detached ADUType = "detached"
	// Attached units share a wall with the primary dwelling.
	Attached ADUType = "attached"
)

// ParseADUType accepts the enum value case-insensitively.
func ParseADUType(value string) (ADUType, error) {
	switch ADUType(strings.ToLower(strings.TrimSpace(value))) {
	case Detached:
		return Detached, nil
	case Attached:
		return Attached, nil
	default:
		return "", fmt.Errorf("unknown ADU type %q, expected %s or %s", value, Detached, Attached)
	}
}

// Utility names the engine looks up in UtilityOptions.
const (
	UtilityWater    = "Water Meter"
	UtilityGas      = "Gas Meter"
	UtilityElectric = "Electric Meter"
)

// Configuration holds every unit price the pricing pipeline reads. A value is
// treated as an immutable snapshot once handed to a calculation.
type Configuration struct {
	Version          string                `json:"version" yaml:"version"`
	LastUpdated      time.Time             `json:"lastUpdated" yaml:"lastUpdated"`
	ADUTypePricing   []ADUTypePrice        `json:"aduTypePricing" yaml:"aduTypePricing"`
	DesignServiceFee float64               `json:"designServiceFee" yaml:"designServiceFee"`
	UtilityOptions   []UtilityOption       `json:"utilityOptions" yaml:"utilityOptions"`
	AddOnOptions     []AddOnOption         `json:"addOnOptions" yaml:"addOnOptions"`
	BusinessSettings BusinessSettings      `json:"businessSettings" yaml:"businessSettings"`
	DiscountRate     float64               `json:"discountRate" yaml:"discountRate"`
	Milestones       []MilestoneDefinition `json:"milestones" yaml:"milestones"`
}

// ADUTypePrice is the $/sqft for one (type, stories) combination. Stories is
// zero when the type has no story variants.
type ADUTypePrice struct {
	Name         string  `json:"name" yaml:"name"`
	Type         ADUType `json:"type" yaml:"type"`
	Stories      int     `json:"stories,omitempty" yaml:"stories,omitempty"`
	PricePerSqFt float64 `json:"pricePerSqFt" yaml:"pricePerSqFt"`
	Description  string  `json:"description" yaml:"description"`
}

// UtilityOption prices a utility meter connection.
type UtilityOption struct {
	Name          string  `json:"name" yaml:"name"`
	SeparatePrice float64 `json:"separatePrice" yaml:"separatePrice"`
	SharedPrice   float64 `json:"sharedPrice" yaml:"sharedPrice"`
	Required      bool    `json:"required" yaml:"required"`
}

// AddOnOption is an optional upgrade keyed by Name.
type AddOnOption struct {
	Name        string  `json:"name" yaml:"name"`
	Price       float64 `json:"price" yaml:"price"`
	Description string  `json:"description" yaml:"description"`
}

// BusinessSettings holds company-wide pricing policy.
type BusinessSettings struct {
	StandardMarkupRate            float64 `json:"standardMarkupRate" yaml:"standardMarkupRate"`
	ProposalValidityDays          int     `json:"proposalValidityDays" yaml:"proposalValidityDays"`
	MinSizeForStandardPricingSqFt int     `json:"minSizeForStandardPricingSqFt" yaml:"minSizeForStandardPricingSqFt"`
	SmallUnitPremiumRate          float64 `json:"smallUnitPremiumRate" yaml:"smallUnitPremiumRate"`
	DepositAmount                 float64 `json:"depositAmount" yaml:"depositAmount"`
	// IncludeElectricMeterLineItem emits the separate electric meter as a
	// line item. Off by default: electric service is priced into the base rate.
	IncludeElectricMeterLineItem bool `json:"includeElectricMeterLineItem" yaml:"includeElectricMeterLineItem"`
}

// MilestoneDefinition is one row of the construction payment table.
type MilestoneDefinition struct {
	Code       string  `json:"code" yaml:"code"`
	Name       string  `json:"name" yaml:"name"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// LookupADUType finds the price row for a type and story count. Stories is
// ignored for attached units and defaults to 1 for detached units.
func (c Configuration) LookupADUType(aduType ADUType, stories int) (ADUTypePrice, bool) {
	if aduType == Detached && stories == 0 {
		stories = 1
	}
	for _, entry := range c.ADUTypePricing {
		if entry.Type != aduType {
			continue
		}
		if aduType == Attached || entry.Stories == stories {
			return entry, true
		}
	}
	return ADUTypePrice{}, false
}

// Utility finds a utility option by name.
func (c Configuration) Utility(name string) (UtilityOption, bool) {
	for _, option := range c.UtilityOptions {
		if strings.EqualFold(option.Name, name) {
			return option, true
		}
	}
	return UtilityOption{}, false
}

// AddOn finds an add-on by its unique name.
func (c Configuration) AddOn(name string) (AddOnOption, bool) {
	for _, option := range c.AddOnOptions {
		if option.Name == name {
			return option, true
		}
	}
	return AddOnOption{}, false
}

// Clone returns a deep copy so callers can edit without touching a snapshot
// that may be in use by a running calculation.
func (c Configuration) Clone() Configuration {
	out := c
	out.ADUTypePricing = append([]ADUTypePrice(nil), c.ADUTypePricing...)
	out.UtilityOptions = append([]UtilityOption(nil), c.UtilityOptions...)
	out.AddOnOptions = append([]AddOnOption(nil), c.AddOnOptions...)
	out.Milestones = append([]MilestoneDefinition(nil), c.Milestones...)
	return out
}
