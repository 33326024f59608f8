package reconcile

import (
	"fmt"
	"strings"

	"wortmann-import/internal/feed"
)

// Buckets partitions reconciled rows by customer number. Order records
// each customer in first-seen sequence so invoice creation is
// deterministic across runs.
type Buckets struct {
	Order []string
	Rows  map[string][]feed.Row
}

// GroupByCustomer partitions rows by their trimmed customer number. Rows
// with a blank customer number produce an error and are dropped; they
// are never folded into a default bucket.
func GroupByCustomer(rows []feed.Row) (Buckets, []string) {
	buckets := Buckets{Rows: make(map[string][]feed.Row)}
	var errs []string

	for _, row := range rows {
		customerNr := strings.TrimSpace(row.CustomerNr)
		if customerNr == "" {
			errs = append(errs, fmt.Sprintf("Missing CustomCustomerNr in line %d", row.Line))
			continue
		}

		if _, seen := buckets.Rows[customerNr]; !seen {
			buckets.Order = append(buckets.Order, customerNr)
		}
		buckets.Rows[customerNr] = append(buckets.Rows[customerNr], row)
	}

	return buckets, errs
}
