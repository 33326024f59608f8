// Package reconcile nets the distributor feed's correction rows against
// their original charge rows and groups the result by customer.
package reconcile

import (
	"fmt"
	"math"

	"wortmann-import/internal/feed"
	"wortmann-import/internal/logger"
	"wortmann-import/internal/numfmt"
)

// Result is the outcome of one reconciliation pass over the feed.
type Result struct {
	// Rows holds the reconciled rows: untouched charges plus merged
	// correction/charge pairs, in input order.
	Rows []feed.Row

	// LicensesBefore is the sum of absolute license quantities over all
	// visited rows before any netting.
	LicensesBefore float64

	// Errors lists the row-level failures, each with its CSV line.
	Errors []string
}

// Reconcile runs a single pass over the rows with a skip-set. A
// correction row is merged with its charge partner and emitted at the
// correction's position; the partner is skipped. A charge row whose
// unskipped correction sits adjacent is deferred, since it surfaces
// later as the merged row. Row failures are collected, never fatal.
func Reconcile(rows []feed.Row) Result {
	log := logger.WithComponent("reconcile")

	var result Result
	skip := make(map[int]bool)

	for i, row := range rows {
		if skip[i] {
			continue
		}

		amount := numfmt.Parse(row.Amount)
		result.LicensesBefore += math.Abs(amount)

		if amount < 0 {
			match, ok := FindPositivePartner(row, rows, i)
			if !ok {
				result.Errors = append(result.Errors,
					fmt.Sprintf("No corresponding positive row found for negative amount in line %d", row.Line))
				log.Warn().
					Int("line", row.Line).
					Str("customer", row.CustomerNr).
					Str("reference", row.ReferenceNumber).
					Msg("Correction row has no positive counterpart, dropping")
				continue
			}

			result.Rows = append(result.Rows, mergeRows(row, match.Row))
			skip[match.Index] = true
			continue
		}

		if match, ok := FindNegativePartner(row, rows, i); ok && !skip[match.Index] {
			// Deferred: this charge surfaces as the merged row when the
			// pipeline reaches its correction.
			continue
		}

		result.Rows = append(result.Rows, row)
	}

	log.Info().
		Int("input_rows", len(rows)).
		Int("reconciled_rows", len(result.Rows)).
		Float64("licenses_before", result.LicensesBefore).
		Int("row_errors", len(result.Errors)).
		Msg("Reconciliation pass completed")

	return result
}

// mergeRows nets a correction row into its charge row. The merged row is
// a copy of the charge row with summed Amount and TotalPrice rendered
// back into decimal-comma notation; the unit price is the charge row's.
func mergeRows(negative, positive feed.Row) feed.Row {
	combined := positive
	combined.Amount = numfmt.Format(numfmt.Parse(positive.Amount) + numfmt.Parse(negative.Amount))
	combined.TotalPrice = numfmt.Format(numfmt.Parse(positive.TotalPrice) + numfmt.Parse(negative.TotalPrice))
	return combined
}
