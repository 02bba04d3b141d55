// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/adu-proposal/pkg/constants"
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseISODate parses a YYYY-MM-DD date. An empty string yields the zero time.
func ParseISODate(date string) (time.Time, error) {
	trimmed := strings.TrimSpace(date)
	if trimmed == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(constants.ISODateLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", date, err)
	}
	return t, nil
}

// ValidUntil returns the last day a proposal issued on issued remains valid.
func ValidUntil(issued time.Time, validityDays int) time.Time {
	if validityDays <= 0 {
		return issued
	}
	return issued.AddDate(0, 0, validityDays)
}

// ProposalDate renders a date the way it appears in client documents, e.g. "March 4, 2026".
func ProposalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(constants.ProposalDateLayout)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
