package pricingconfig

import "github.com/iwvelando/adu-proposal/pkg/constants"

// Defaults returns the built-in configuration used on first run and whenever
// a stored document cannot be read.
func Defaults() Configuration {
	return Configuration{
		Version: constants.PricingConfigVersion,
		ADUTypePricing: []ADUTypePrice{
			{
				Name:         "Detached ADU - Single Story",
				Type:         Detached,
				Stories:      1,
				PricePerSqFt: 220,
				Description:  "Stand-alone single story unit",
			},
			{
				Name:         "Detached ADU - Two Story",
				Type:         Detached,
				Stories:      2,
				PricePerSqFt: 240,
				Description:  "Stand-alone two story unit",
			},
			{
				Name:         "Attached ADU",
				Type:         Attached,
				PricePerSqFt: 200,
				Description:  "Unit sharing a wall with the primary residence",
			},
		},
		DesignServiceFee: 12500,
		UtilityOptions: []UtilityOption{
			{Name: UtilityWater, SeparatePrice: 3500},
			{Name: UtilityGas, SeparatePrice: 3500},
			{Name: UtilityElectric, SeparatePrice: 5000, Required: true},
		},
		AddOnOptions: []AddOnOption{
			{Name: "Extra Bathroom", Price: 8000, Description: "Additional full bathroom"},
			{Name: "Driveway", Price: 5000, Description: "Concrete driveway extension"},
			{Name: "Basic Landscaping", Price: 10000, Description: "Grading, irrigation and planting around the unit"},
			{Name: "Fire Sprinklers", Price: 4500, Description: "Residential fire sprinkler system"},
		},
		BusinessSettings: BusinessSettings{
			StandardMarkupRate:            0.15,
			ProposalValidityDays:          30,
			MinSizeForStandardPricingSqFt: 400,
			SmallUnitPremiumRate:          constants.DefaultSmallUnitPremiumRate,
			DepositAmount:                 constants.DefaultDepositAmount,
		},
		DiscountRate: 0.10,
		Milestones:   DefaultMilestones(),
	}
}

// DefaultMilestones is the seven-row construction payment table.
func DefaultMilestones() []MilestoneDefinition {
	return []MilestoneDefinition{
		{Code: "MOB", Name: "Mobilization", Percentage: 18},
		{Code: "UND", Name: "Underground Work", Percentage: 18},
		{Code: "FND", Name: "Foundation", Percentage: 18},
		{Code: "FRM", Name: "Framing", Percentage: 16},
		{Code: "MEP", Name: "MEP Rough", Percentage: 14},
		{Code: "DRY", Name: "Drywall", Percentage: 11},
		{Code: "FIN", Name: "Final Completion", Percentage: 5},
	}
}
