package feed

// Row is one data line of the distributor feed. All fields keep the
// feed's string representation; amounts use a decimal comma and are
// normalized on demand. A field whose column is absent is the empty
// string.
type Row struct {
	CustomerNr      string // CustomCustomerNr - distributor's internal customer number
	ReferenceNumber string // ReferenceNumber - order/contract reference
	ArticleNumber   string // ArticleNumber_Mandant - distributor's article number
	Amount          string // Amount - license quantity, negative for corrections
	Price           string // Price - unit price
	TotalPrice      string // TotalPrice - line total
	Currency        string // Currency - free-text currency label
	Line            int    // 1-based CSV line number, header is line 1
}

// MatchKey is the composite key used to pair a correction row with its
// original charge row.
type MatchKey struct {
	CustomerNr      string
	ReferenceNumber string
	ArticleNumber   string
}

// Key returns the row's match key.
func (r Row) Key() MatchKey {
	return MatchKey{
		CustomerNr:      r.CustomerNr,
		ReferenceNumber: r.ReferenceNumber,
		ArticleNumber:   r.ArticleNumber,
	}
}
