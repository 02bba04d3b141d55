// Package testutil provides common utility functions for testing.
package testutil

import (
	"strings"

	"github.com/iwvelando/adu-proposal/internal/milestone"
	"github.com/iwvelando/adu-proposal/internal/pricing"
)

// FindLineItem finds the first line item whose description starts with
// prefix. Returns nil when none matches.
func FindLineItem(items []pricing.LineItem, prefix string) *pricing.LineItem {
	for i := range items {
		if strings.HasPrefix(items[i].Description, prefix) {
			return &items[i]
		}
	}
	return nil
}

// CountCategory counts the line items in a category.
func CountCategory(items []pricing.LineItem, category pricing.Category) int {
	count := 0
	for _, item := range items {
		if item.Category == category {
			count++
		}
	}
	return count
}

// FindMilestone finds a payment by its code. Returns nil when none matches.
func FindMilestone(payments []milestone.Payment, code string) *milestone.Payment {
	for i := range payments {
		if payments[i].Code == code {
			return &payments[i]
		}
	}
	return nil
}

// Float64 returns a pointer to v, for building optional overrides.
func Float64(v float64) *float64 {
	return &v
}
