package invoicing

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderReport renders the human-readable import summary. The field
// labels are fixed German text matching the hosting system's result
// log; ordering is totals before/after, invoice count, successful
// customers (when any), then the error list (when any).
func RenderReport(licensesBefore, licensesAfter float64, invoicesCreated int, errs []string, successfulCustomers []string) string {
	lines := []string{
		"Gesamtzahl Lizenzen vorher: " + formatQuantity(licensesBefore),
		"Gesamtzahl Lizenzen nachher: " + formatQuantity(licensesAfter),
		fmt.Sprintf("Gesamtzahl erz. Rechnungen: %d", invoicesCreated),
	}

	if len(successfulCustomers) > 0 {
		lines = append(lines, "Erfolgreiche Kunden: "+strings.Join(successfulCustomers, ", "))
	}

	if len(errs) > 0 {
		lines = append(lines, fmt.Sprintf("\nFehler (%d):", len(errs)))
		for _, err := range errs {
			lines = append(lines, "- "+err)
		}
	}

	return strings.Join(lines, "\n")
}

func formatQuantity(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
