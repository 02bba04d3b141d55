package datetime

import (
	"testing"
	"time"

	"github.com/iwvelando/adu-proposal/pkg/constants"
)

func TestParseISODate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  time.Time
		wantError bool
	}{
		{"Valid date", "2026-03-04", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), false},
		{"Surrounding whitespace", " 2026-12-31 ", time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"Empty is zero", "", time.Time{}, false},
		{"Wrong layout", "03/04/2026", time.Time{}, true},
		{"Impossible date", "2026-02-30", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseISODate(tt.input)
			if tt.wantError {
				if err == nil {
					t.Errorf("ParseISODate(%q) expected error but got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseISODate(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("ParseISODate(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidUntil(t *testing.T) {
	issued := MustParseTime(constants.ISODateLayout, "2026-01-15")

	tests := []struct {
		name     string
		days     int
		expected string
	}{
		{"Thirty days", 30, "2026-02-14"},
		{"Crosses year", 365, "2027-01-15"},
		{"Zero days", 0, "2026-01-15"},
		{"Negative days", -5, "2026-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidUntil(issued, tt.days).Format(constants.ISODateLayout)
			if got != tt.expected {
				t.Errorf("ValidUntil(%d) = %s, expected %s", tt.days, got, tt.expected)
			}
		})
	}
}

func TestProposalDate(t *testing.T) {
	if got := ProposalDate(MustParseTime(constants.ISODateLayout, "2026-03-04")); got != "March 4, 2026" {
		t.Errorf("ProposalDate() = %q, expected %q", got, "March 4, 2026")
	}
	if got := ProposalDate(time.Time{}); got != "" {
		t.Errorf("ProposalDate(zero) = %q, expected empty", got)
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, 5, 6, 17, 45, 12, 99, time.UTC)
	got := StartOfDay(in)
	if !got.Equal(time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartOfDay() = %v", got)
	}
}

func TestMustParseTimePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParseTime() expected panic for invalid input")
		}
	}()
	MustParseTime(constants.ISODateLayout, "not-a-date")
}
