// Package numfmt converts between the distributor feed's decimal-comma
// number strings and float64.
package numfmt

import (
	"strconv"
	"strings"
)

// Parse converts a decimal-comma number string ("135,4") to a float64.
// Empty and unparsable input both yield 0; the feed contains stray
// non-numeric cells and a single bad value must not stop the import.
func Parse(raw string) float64 {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0
	}

	// The feed carries no thousands separators, so the first comma is
	// the decimal separator.
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// Format renders a float64 back into the feed's decimal-comma notation.
// Only used for the string fields of merged rows.
func Format(value float64) string {
	return strings.Replace(strconv.FormatFloat(value, 'f', -1, 64), ".", ",", 1)
}
