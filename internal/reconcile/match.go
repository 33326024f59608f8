package reconcile

import (
	"wortmann-import/internal/feed"
	"wortmann-import/internal/numfmt"
)

// Match is a partner row located for a charge or correction row.
type Match struct {
	Row   feed.Row
	Index int
}

// FindPositivePartner locates the positive charge row belonging to a
// correction row. The physically adjacent rows (index-1, then index+1)
// are checked first because the distributor emits corrections next to
// their original line; only then does a full ascending scan run.
func FindPositivePartner(row feed.Row, all []feed.Row, index int) (Match, bool) {
	if match, ok := adjacentPartner(row, all, index, positive); ok {
		return match, true
	}

	for i, candidate := range all {
		if i == index {
			continue
		}
		if candidate.Key() == row.Key() && positive(numfmt.Parse(candidate.Amount)) {
			return Match{Row: candidate, Index: i}, true
		}
	}

	return Match{}, false
}

// FindNegativePartner locates an adjacent correction row for a charge
// row. There is deliberately no full-scan fallback here: widening the
// search would change which charge rows get deferred, and a correction
// far from its charge is still found by FindPositivePartner when the
// pipeline reaches it.
func FindNegativePartner(row feed.Row, all []feed.Row, index int) (Match, bool) {
	return adjacentPartner(row, all, index, negative)
}

func adjacentPartner(row feed.Row, all []feed.Row, index int, wantSign func(float64) bool) (Match, bool) {
	for _, offset := range []int{-1, 1} {
		i := index + offset
		if i < 0 || i >= len(all) {
			continue
		}
		candidate := all[i]
		if candidate.Key() == row.Key() && wantSign(numfmt.Parse(candidate.Amount)) {
			return Match{Row: candidate, Index: i}, true
		}
	}
	return Match{}, false
}

func positive(amount float64) bool { return amount > 0 }

func negative(amount float64) bool { return amount < 0 }
