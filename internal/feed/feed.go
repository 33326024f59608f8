// Package feed decodes the distributor's license usage feed: a
// Windows-1252 encoded, semicolon-delimited CSV, delivered either raw or
// base64-encoded.
package feed

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Column names consumed from the feed header.
const (
	ColCustomerNr  = "CustomCustomerNr"
	ColReferenceNr = "ReferenceNumber"
	ColArticleNr   = "ArticleNumber_Mandant"
	ColAmount      = "Amount"
	ColPrice       = "Price"
	ColTotalPrice  = "TotalPrice"
	ColCurrency    = "Currency"
)

// DecodeText turns an uploaded blob into UTF-8 text. The upload channel
// delivers either base64 or the raw bytes, so base64 is attempted first
// and the raw bytes are used when that fails. The payload itself is
// Windows-1252 encoded.
func DecodeText(content []byte) (string, error) {
	const op = "DecodeText"

	raw := content
	if decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(content))); err == nil {
		raw = decoded
	}

	decoder := charmap.Windows1252.NewDecoder()
	text, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), decoder))
	if err != nil {
		return "", fmt.Errorf("%s: failed to decode Windows-1252 content: %w", op, err)
	}

	return string(text), nil
}

// ParseRows parses the semicolon-delimited CSV text into typed rows.
// The first line is the header; a column missing from the header leaves
// the corresponding field blank on every row.
func ParseRows(text string) ([]Row, error) {
	const op = "ParseRows"

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse CSV: %w", op, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: CSV contains no header row", op)
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	field := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	rows := make([]Row, 0, len(records)-1)
	for n, record := range records[1:] {
		rows = append(rows, Row{
			CustomerNr:      field(record, ColCustomerNr),
			ReferenceNumber: field(record, ColReferenceNr),
			ArticleNumber:   field(record, ColArticleNr),
			Amount:          field(record, ColAmount),
			Price:           field(record, ColPrice),
			TotalPrice:      field(record, ColTotalPrice),
			Currency:        field(record, ColCurrency),
			Line:            n + 2, // 1-based CSV line, header is line 1
		})
	}

	return rows, nil
}
