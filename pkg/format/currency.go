// Package format renders numbers for proposal documents and terminal output.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// WholeCurrency returns a currency string rounded to whole dollars (e.g., "$52,000").
func WholeCurrency(amount float64) string {
	rounded := math.Round(amount)
	intPart := groupThousands(strconv.FormatFloat(math.Abs(rounded), 'f', 0, 64))
	if rounded < 0 {
		return "-$" + intPart
	}
	return "$" + intPart
}

// Percent renders a fraction as a percentage, dropping a trailing ".0" (0.15 -> "15%", 0.125 -> "12.5%").
func Percent(fraction float64) string {
	value := strconv.FormatFloat(math.Round(fraction*1000)/10, 'f', 1, 64)
	value = strings.TrimSuffix(value, ".0")
	return value + "%"
}

// SquareFeet renders an area with separators (e.g., "1,200 sq ft").
func SquareFeet(area float64) string {
	if area == math.Trunc(area) {
		return groupThousands(strconv.FormatFloat(area, 'f', 0, 64)) + " sq ft"
	}
	return fmt.Sprintf("%s sq ft", groupThousands(strconv.FormatFloat(area, 'f', 1, 64)))
}

func formatPositiveCurrency(value float64) string {
	formatted := fmt.Sprintf("%.2f", value)
	intPart, decPart, found := strings.Cut(formatted, ".")
	if !found {
		decPart = "00"
	}
	return groupThousands(intPart) + "." + decPart
}

// groupThousands inserts separators into the integer portion of a number string.
func groupThousands(number string) string {
	intPart, fracPart, hasFrac := strings.Cut(number, ".")
	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}
	if hasFrac {
		return intPart + "." + fracPart
	}
	return intPart
}
