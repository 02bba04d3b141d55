package proposal

import (
	"github.com/iwvelando/adu-proposal/internal/milestone"
	"github.com/iwvelando/adu-proposal/internal/pricing"
	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"go.uber.org/zap"
)

// Estimate is the priced result for one set of inputs: the breakdown, the
// discount and the payment schedule built from the discounted total.
type Estimate struct {
	Inputs             pricing.Inputs      `json:"inputs"`
	Breakdown          pricing.Breakdown   `json:"breakdown"`
	Discount           pricing.Discount    `json:"discount"`
	DesignFee          float64             `json:"designFee"`
	Deposit            float64             `json:"deposit"`
	ConstructionAmount float64             `json:"constructionAmount"`
	Milestones         []milestone.Payment `json:"milestones"`
}

// Estimate prices inputs and schedules the construction payments.
func (a *Assembler) Estimate(inputs pricing.Inputs, cfg pricingconfig.Configuration) (Estimate, error) {
	breakdown, err := a.pricing.Calculate(inputs, cfg)
	if err != nil {
		return Estimate{}, err
	}

	discount := pricing.DiscountFor(inputs, breakdown, cfg.DiscountRate)
	designFee := breakdown.CategoryTotal(pricing.DesignServices)
	deposit := cfg.BusinessSettings.DepositAmount

	payments, err := a.scheduler.Schedule(discount.Total, designFee, deposit, cfg.Milestones)
	if err != nil {
		return Estimate{}, err
	}

	a.logger.Debug("built estimate",
		zap.String("op", "proposal.Estimate"),
		zap.Float64("grandTotal", breakdown.GrandTotal),
		zap.Float64("finalTotal", discount.Total),
		zap.Int("milestones", len(payments)),
	)

	return Estimate{
		Inputs:             inputs,
		Breakdown:          breakdown,
		Discount:           discount,
		DesignFee:          designFee,
		Deposit:            deposit,
		ConstructionAmount: milestone.ConstructionAmount(discount.Total, designFee, deposit),
		Milestones:         payments,
	}, nil
}
