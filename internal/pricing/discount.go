package pricing

import "github.com/iwvelando/adu-proposal/pkg/mathutil"

// Discount is the friends and family reduction applied to a grand total.
type Discount struct {
	Undiscounted float64 `json:"undiscounted"`
	Rate         float64 `json:"rate"`
	Amount       float64 `json:"amount"`
	Total        float64 `json:"total"`
}

// Applied reports whether the discount reduces the total.
func (d Discount) Applied() bool {
	return d.Amount > 0
}

// ApplyDiscount reduces the breakdown's grand total by rate. Line items are
// never discounted individually. A rate outside (0, 1] leaves the total as is.
func ApplyDiscount(b Breakdown, rate float64) Discount {
	d := Discount{Undiscounted: b.GrandTotal, Total: b.GrandTotal}
	if rate <= 0 || rate > 1 {
		return d
	}
	d.Rate = rate
	d.Amount = mathutil.Round(mathutil.Multiply(b.GrandTotal, rate))
	d.Total = mathutil.Subtract(b.GrandTotal, d.Amount)
	return d
}

// DiscountFor applies rate only when the inputs qualify for the discount.
func DiscountFor(inputs Inputs, b Breakdown, rate float64) Discount {
	if !inputs.FriendsAndFamilyDiscount {
		return ApplyDiscount(b, 0)
	}
	return ApplyDiscount(b, rate)
}
