// Package milestone splits a construction amount into rounded progress
// payments whose sum is exactly the amount.
package milestone

import (
	"errors"
	"fmt"

	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"github.com/iwvelando/adu-proposal/pkg/constants"
	"github.com/iwvelando/adu-proposal/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrInvalidTable is returned when a milestone table cannot be scheduled.
var ErrInvalidTable = errors.New("invalid milestone table")

// Payment is one scheduled installment.
type Payment struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Amount     float64 `json:"amount"`
}

// Scheduler computes payment schedules. It is safe for concurrent use.
type Scheduler struct {
	logger    *zap.Logger
	increment decimal.Decimal
	minimum   decimal.Decimal
}

// NewScheduler creates a scheduler that rounds to the nearest $1,000.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		logger:    logger,
		increment: decimal.NewFromFloat(constants.MilestoneRoundingIncrement),
		minimum:   decimal.NewFromFloat(constants.MinimumMilestoneAmount),
	}
}

// ConstructionAmount is the part of the grand total paid through milestones.
func ConstructionAmount(grandTotal, designFee, deposit float64) float64 {
	return mathutil.Subtract(mathutil.Subtract(grandTotal, designFee), deposit)
}

// Schedule splits grandTotal - designFee - deposit across the table rows.
// Every row but the last is rounded half-up to the increment and the last
// row takes the exact remainder. Pathological amounts are redistributed and
// logged, never returned as errors.
func (s *Scheduler) Schedule(grandTotal, designFee, deposit float64, table []pricingconfig.MilestoneDefinition) ([]Payment, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	amount := decimal.NewFromFloat(ConstructionAmount(grandTotal, designFee, deposit))
	payments := make([]Payment, len(table))
	for i, row := range table {
		payments[i] = Payment{Code: row.Code, Name: row.Name, Percentage: row.Percentage}
	}

	if !amount.IsPositive() {
		s.logger.Warn("construction amount is not positive, scheduling zero payments",
			zap.String("op", "milestone.Schedule"),
			zap.Float64("grandTotal", grandTotal),
			zap.Float64("designFee", designFee),
			zap.Float64("deposit", deposit),
		)
		return payments, nil
	}

	last := len(table) - 1
	amounts := make([]decimal.Decimal, len(table))
	hundred := decimal.NewFromInt(100)
	for i := 0; i < last; i++ {
		share := amount.Mul(decimal.NewFromFloat(table[i].Percentage)).Div(hundred)
		amounts[i] = s.round(share)
	}
	amounts[last] = remainder(amount, amounts[:last])

	if amounts[last].IsNegative() {
		s.redistribute(amount, amounts)
	}

	for i := range payments {
		payments[i].Amount = amounts[i].InexactFloat64()
	}
	return payments, nil
}

// redistribute lifts a negative final row to the minimum by reducing the
// earlier rows, never below the minimum. The final row stays the exact
// remainder.
func (s *Scheduler) redistribute(amount decimal.Decimal, amounts []decimal.Decimal) {
	last := len(amounts) - 1
	shortfall := s.minimum.Sub(amounts[last])

	s.logger.Warn("final milestone would be negative, redistributing",
		zap.String("op", "milestone.redistribute"),
		zap.Float64("constructionAmount", amount.InexactFloat64()),
		zap.Float64("finalAmount", amounts[last].InexactFloat64()),
		zap.Float64("shortfall", shortfall.InexactFloat64()),
	)

	if last > 0 {
		perRow := s.round(shortfall.Div(decimal.NewFromInt(int64(last))))
		for i := 0; i < last; i++ {
			reduced := decimal.Max(amounts[i].Sub(perRow), s.minimum)
			if reduced.LessThan(amounts[i]) {
				amounts[i] = reduced
			}
		}
	}
	amounts[last] = remainder(amount, amounts[:last])

	for amounts[last].LessThan(s.minimum) {
		i := s.firstAboveMinimum(amounts[:last])
		if i < 0 {
			break
		}
		amounts[i] = amounts[i].Sub(s.increment)
		amounts[last] = remainder(amount, amounts[:last])
	}

	if amounts[last].IsNegative() {
		s.logger.Warn("construction amount too small to schedule, final milestone set to zero",
			zap.String("op", "milestone.redistribute"),
			zap.Float64("constructionAmount", amount.InexactFloat64()),
		)
		amounts[last] = decimal.Zero
	}
}

func (s *Scheduler) firstAboveMinimum(amounts []decimal.Decimal) int {
	for i, a := range amounts {
		if a.Sub(s.increment).GreaterThanOrEqual(s.minimum) {
			return i
		}
	}
	return -1
}

// round is half-up to the nearest increment.
func (s *Scheduler) round(v decimal.Decimal) decimal.Decimal {
	return v.Div(s.increment).Add(decimal.NewFromFloat(0.5)).Floor().Mul(s.increment)
}

func remainder(amount decimal.Decimal, rows []decimal.Decimal) decimal.Decimal {
	out := amount
	for _, r := range rows {
		out = out.Sub(r)
	}
	return out
}

func validateTable(table []pricingconfig.MilestoneDefinition) error {
	if len(table) == 0 {
		return fmt.Errorf("%w: no rows", ErrInvalidTable)
	}
	total := decimal.Zero
	for i, row := range table {
		if row.Percentage <= 0 {
			return fmt.Errorf("%w: row %d (%s) has percentage %v", ErrInvalidTable, i, row.Name, row.Percentage)
		}
		total = total.Add(decimal.NewFromFloat(row.Percentage))
	}
	if !total.Equal(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percentages total %s, expected 100", ErrInvalidTable, total.String())
	}
	return nil
}

// Total sums the scheduled amounts.
func Total(payments []Payment) float64 {
	values := make([]float64, len(payments))
	for i, p := range payments {
		values[i] = p.Amount
	}
	return mathutil.Sum(values...)
}
