package pricingconfig

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/adu-proposal/pkg/mathutil"
)

// Validate reports every field that would make the configuration unusable
// for a calculation. The result wraps one error per problem.
func (c Configuration) Validate() error {
	var errs []error
	errs = append(errs, validateADUTypes(c.ADUTypePricing)...)
	if err := validateDesignFee(c.DesignServiceFee); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateUtilities(c.UtilityOptions)...)
	errs = append(errs, validateAddOns(c.AddOnOptions)...)
	errs = append(errs, validateBusinessSettings(c.BusinessSettings)...)
	if err := validateDiscountRate(c.DiscountRate); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, validateMilestones(c.Milestones)...)
	return errors.Join(errs...)
}

// ValidateConfiguration returns warnings for settings that are legal but
// probably unintended.
func (c Configuration) ValidateConfiguration() []string {
	var warnings []string

	if _, ok := c.LookupADUType(Attached, 0); !ok {
		warnings = append(warnings, "no pricing configured for attached ADUs")
	}
	for _, stories := range []int{1, 2} {
		if _, ok := c.LookupADUType(Detached, stories); !ok {
			warnings = append(warnings, fmt.Sprintf("no pricing configured for %d-story detached ADUs", stories))
		}
	}
	for _, name := range []string{UtilityWater, UtilityGas, UtilityElectric} {
		if _, ok := c.Utility(name); !ok {
			warnings = append(warnings, fmt.Sprintf("utility option %q is missing; selecting a separate meter will add nothing", name))
		}
	}
	for _, entry := range c.ADUTypePricing {
		if entry.PricePerSqFt > c.BusinessSettings.SmallUnitPremiumRate {
			warnings = append(warnings, fmt.Sprintf("%s rate %.2f exceeds the small unit premium rate %.2f",
				entry.Name, entry.PricePerSqFt, c.BusinessSettings.SmallUnitPremiumRate))
		}
	}
	if len(c.Milestones) != 7 {
		warnings = append(warnings, fmt.Sprintf("milestone table has %d rows, proposals normally use 7", len(c.Milestones)))
	}
	if c.BusinessSettings.StandardMarkupRate > 0.5 {
		warnings = append(warnings, fmt.Sprintf("standard markup rate %.2f is above 50%%", c.BusinessSettings.StandardMarkupRate))
	}

	return warnings
}

func validateADUTypes(entries []ADUTypePrice) []error {
	var errs []error
	if len(entries) == 0 {
		return []error{errors.New("aduTypePricing: at least one entry is required")}
	}
	seen := make(map[string]bool)
	for i, entry := range entries {
		switch entry.Type {
		case Detached:
			if entry.Stories != 1 && entry.Stories != 2 {
				errs = append(errs, fmt.Errorf("aduTypePricing[%d]: detached stories must be 1 or 2, got %d", i, entry.Stories))
			}
		case Attached:
			if entry.Stories != 0 {
				errs = append(errs, fmt.Errorf("aduTypePricing[%d]: attached entries must not set stories", i))
			}
		default:
			errs = append(errs, fmt.Errorf("aduTypePricing[%d]: unknown type %q", i, entry.Type))
		}
		if !isPositive(entry.PricePerSqFt) {
			errs = append(errs, fmt.Errorf("aduTypePricing[%d]: pricePerSqFt must be positive, got %v", i, entry.PricePerSqFt))
		}
		key := fmt.Sprintf("%s/%d", entry.Type, entry.Stories)
		if seen[key] {
			errs = append(errs, fmt.Errorf("aduTypePricing[%d]: duplicate entry for %s with %d stories", i, entry.Type, entry.Stories))
		}
		seen[key] = true
	}
	return errs
}

func validateDesignFee(fee float64) error {
	if !isPositive(fee) {
		return fmt.Errorf("designServiceFee must be positive, got %v", fee)
	}
	return nil
}

func validateUtilities(options []UtilityOption) []error {
	var errs []error
	seen := make(map[string]bool)
	for i, option := range options {
		if option.Name == "" {
			errs = append(errs, fmt.Errorf("utilityOptions[%d]: name is required", i))
		}
		if !isNonNegative(option.SeparatePrice) {
			errs = append(errs, fmt.Errorf("utilityOptions[%d]: separatePrice must not be negative, got %v", i, option.SeparatePrice))
		}
		if option.SharedPrice != 0 {
			errs = append(errs, fmt.Errorf("utilityOptions[%d]: sharedPrice must be 0, got %v", i, option.SharedPrice))
		}
		if seen[option.Name] {
			errs = append(errs, fmt.Errorf("utilityOptions[%d]: duplicate utility %q", i, option.Name))
		}
		seen[option.Name] = true
	}
	return errs
}

func validateAddOns(options []AddOnOption) []error {
	var errs []error
	seen := make(map[string]bool)
	for i, option := range options {
		if option.Name == "" {
			errs = append(errs, fmt.Errorf("addOnOptions[%d]: name is required", i))
		}
		if !isNonNegative(option.Price) {
			errs = append(errs, fmt.Errorf("addOnOptions[%d]: price must not be negative, got %v", i, option.Price))
		}
		if seen[option.Name] {
			errs = append(errs, fmt.Errorf("addOnOptions[%d]: duplicate add-on %q", i, option.Name))
		}
		seen[option.Name] = true
	}
	return errs
}

func validateBusinessSettings(settings BusinessSettings) []error {
	var errs []error
	if !isFraction(settings.StandardMarkupRate) {
		errs = append(errs, fmt.Errorf("businessSettings.standardMarkupRate must be between 0 and 1, got %v", settings.StandardMarkupRate))
	}
	if settings.ProposalValidityDays <= 0 {
		errs = append(errs, fmt.Errorf("businessSettings.proposalValidityDays must be positive, got %d", settings.ProposalValidityDays))
	}
	if settings.MinSizeForStandardPricingSqFt <= 0 {
		errs = append(errs, fmt.Errorf("businessSettings.minSizeForStandardPricingSqFt must be positive, got %d", settings.MinSizeForStandardPricingSqFt))
	}
	if !isPositive(settings.SmallUnitPremiumRate) {
		errs = append(errs, fmt.Errorf("businessSettings.smallUnitPremiumRate must be positive, got %v", settings.SmallUnitPremiumRate))
	}
	if !isNonNegative(settings.DepositAmount) {
		errs = append(errs, fmt.Errorf("businessSettings.depositAmount must not be negative, got %v", settings.DepositAmount))
	}
	return errs
}

func validateDiscountRate(rate float64) error {
	if !isFraction(rate) {
		return fmt.Errorf("discountRate must be between 0 and 1, got %v", rate)
	}
	return nil
}

func validateMilestones(rows []MilestoneDefinition) []error {
	if len(rows) == 0 {
		return []error{errors.New("milestones: at least one row is required")}
	}
	var errs []error
	total := 0.0
	for i, row := range rows {
		if row.Name == "" {
			errs = append(errs, fmt.Errorf("milestones[%d]: name is required", i))
		}
		if !isPositive(row.Percentage) {
			errs = append(errs, fmt.Errorf("milestones[%d]: percentage must be positive, got %v", i, row.Percentage))
		}
		total = mathutil.Sum(total, row.Percentage)
	}
	if !mathutil.WithinTolerance(total, 100, 1e-9) {
		errs = append(errs, fmt.Errorf("milestones: percentages must total 100, got %v", total))
	}
	return errs
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func isNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func isFraction(v float64) bool {
	return v >= 0 && v <= 1
}
