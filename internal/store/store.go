// Package store provides file-backed implementations of the invoicing
// collaborator ports, rooted in a data directory. It stands in for the
// hosting accounting system: master data comes from a JSON seed file,
// draft invoices are written as JSON documents, and the import
// history/result logs are append-only JSONL files.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"wortmann-import/internal/invoicing"
	"wortmann-import/internal/logger"
)

// Store implements every invoicing port against a local directory.
type Store struct {
	dir          string
	settingsFile string
	seed         masterData
	draftSeq     int
	log          zerolog.Logger
}

type masterData struct {
	Customers       []customerRecord `json:"customers"`
	Items           []itemRecord     `json:"items"`
	Currencies      []string         `json:"currencies"`
	DefaultCurrency string           `json:"default_currency"`
	ExchangeRates   []rateRecord     `json:"exchange_rates"`
	Accounts        []accountRecord  `json:"accounts"`
}

type customerRecord struct {
	ID                     string `json:"id"`
	Name                   string `json:"customer_name"`
	InternalCustomerNumber string `json:"internal_customer_number"`
}

type itemRecord struct {
	Code                  string `json:"item_code"`
	Name                  string `json:"item_name"`
	Description           string `json:"description"`
	ExternalArticleNumber string `json:"external_article_number"`
}

type rateRecord struct {
	From       string  `json:"from_currency"`
	To         string  `json:"to_currency"`
	Date       string  `json:"date"`
	Rate       float64 `json:"rate"`
	ForSelling bool    `json:"for_selling"`
}

type accountRecord struct {
	Name    string   `json:"account_name"`
	TaxRate *float64 `json:"tax_rate,omitempty"`
	Rate    *float64 `json:"rate,omitempty"`
}

type settingsFile struct {
	TaxAccount           string           `json:"tax_account"`
	SuppressZeroInvoices bool             `json:"suppress_zero_invoices"`
	Discounts            []discountRecord `json:"discounts"`
}

type discountRecord struct {
	CustomerName string  `json:"customer_name"`
	Percent      float64 `json:"percent"`
}

// Open loads the master data seed and prepares the directory layout.
func Open(dir, settingsName, masterName string) (*Store, error) {
	const op = "Open"

	raw, err := os.ReadFile(filepath.Join(dir, masterName))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read master data: %w", op, err)
	}

	var seed masterData
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("%s: failed to parse master data: %w", op, err)
	}

	for _, sub := range []string{"invoices", "uploads"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("%s: failed to create %s directory: %w", op, sub, err)
		}
	}

	existing, err := os.ReadDir(filepath.Join(dir, "invoices"))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list invoices: %w", op, err)
	}

	return &Store{
		dir:          dir,
		settingsFile: settingsName,
		seed:         seed,
		draftSeq:     len(existing),
		log:          logger.WithComponent("file-store"),
	}, nil
}

// Load reads the settings document.
func (s *Store) Load(ctx context.Context) (invoicing.Settings, error) {
	const op = "Load"

	raw, err := os.ReadFile(filepath.Join(s.dir, s.settingsFile))
	if err != nil {
		return invoicing.Settings{}, fmt.Errorf("%s: failed to read settings: %w", op, err)
	}

	var doc settingsFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return invoicing.Settings{}, fmt.Errorf("%s: failed to parse settings: %w", op, err)
	}

	settings := invoicing.Settings{
		TaxAccount:           doc.TaxAccount,
		SuppressZeroInvoices: doc.SuppressZeroInvoices,
	}
	for _, d := range doc.Discounts {
		settings.Discounts = append(settings.Discounts, invoicing.CustomerDiscount{
			CustomerName: d.CustomerName,
			Percent:      d.Percent,
		})
	}

	return settings, nil
}

// CustomerByInternalNumber finds the customer carrying the
// distributor's internal customer number.
func (s *Store) CustomerByInternalNumber(ctx context.Context, number string) (invoicing.Customer, error) {
	for _, c := range s.seed.Customers {
		if c.InternalCustomerNumber == number {
			return invoicing.Customer{ID: c.ID, Name: c.Name}, nil
		}
	}
	return invoicing.Customer{}, invoicing.ErrCustomerNotFound
}

// ItemByExternalArticleNumber finds the item carrying the distributor's
// article number.
func (s *Store) ItemByExternalArticleNumber(ctx context.Context, article string) (invoicing.Item, error) {
	for _, i := range s.seed.Items {
		if i.ExternalArticleNumber == article {
			return invoicing.Item{Code: i.Code, Name: i.Name, Description: i.Description}, nil
		}
	}
	return invoicing.Item{}, invoicing.ErrItemNotFound
}

// Exists reports whether the code is one of the tenant's currencies.
func (s *Store) Exists(ctx context.Context, code string) (bool, error) {
	if code == s.seed.DefaultCurrency {
		return true, nil
	}
	for _, c := range s.seed.Currencies {
		if c == code {
			return true, nil
		}
	}
	return false, nil
}

// DefaultCurrency returns the tenant's default currency.
func (s *Store) DefaultCurrency(ctx context.Context) (string, error) {
	if s.seed.DefaultCurrency == "" {
		return "", fmt.Errorf("no default currency configured in master data")
	}
	return s.seed.DefaultCurrency, nil
}

// SellingRate returns the selling rate exactly matching the date.
func (s *Store) SellingRate(ctx context.Context, from, to string, asOf time.Time) (float64, error) {
	date := asOf.Format("2006-01-02")
	for _, r := range s.seed.ExchangeRates {
		if r.ForSelling && r.From == from && r.To == to && r.Date == date {
			return r.Rate, nil
		}
	}
	return 0, invoicing.ErrRateNotFound
}

// LatestSellingRate returns the most recent selling rate for the pair.
func (s *Store) LatestSellingRate(ctx context.Context, from, to string) (float64, error) {
	var (
		found    bool
		latest   string
		bestRate float64
	)
	for _, r := range s.seed.ExchangeRates {
		if r.ForSelling && r.From == from && r.To == to && (!found || r.Date > latest) {
			found = true
			latest = r.Date
			bestRate = r.Rate
		}
	}
	if !found {
		return 0, invoicing.ErrRateNotFound
	}
	return bestRate, nil
}

// AccountByName looks up a ledger account record.
func (s *Store) AccountByName(ctx context.Context, name string) (invoicing.Account, error) {
	for _, a := range s.seed.Accounts {
		if a.Name == name {
			return invoicing.Account{Name: a.Name, TaxRate: a.TaxRate, Rate: a.Rate}, nil
		}
	}
	return invoicing.Account{}, invoicing.ErrAccountNotFound
}

// CalculateTotals computes the invoice grand total: line amounts, minus
// the invoice-level discount, plus the on-net-total tax charges.
func (s *Store) CalculateTotals(ctx context.Context, invoice *invoicing.DraftInvoice) error {
	var net float64
	for _, line := range invoice.Items {
		net += line.Amount
	}
	net *= 1 - invoice.DiscountPercentage/100

	total := net
	for _, tax := range invoice.Taxes {
		total += net * tax.Rate / 100
	}

	invoice.GrandTotal = total
	return nil
}

// SaveDraft writes the invoice as a JSON document under invoices/.
func (s *Store) SaveDraft(ctx context.Context, invoice *invoicing.DraftInvoice) error {
	const op = "SaveDraft"

	s.draftSeq++
	name := fmt.Sprintf("draft-%04d.json", s.draftSeq)

	raw, err := json.MarshalIndent(invoice, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: failed to encode invoice: %w", op, err)
	}

	path := filepath.Join(s.dir, "invoices", name)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("%s: failed to write invoice: %w", op, err)
	}

	s.log.Debug().Str("file", name).Str("customer", invoice.Customer).Msg("Draft invoice written")
	return nil
}

// Store keeps the raw upload under uploads/ and returns its reference
// name.
func (s *Store) Store(ctx context.Context, name string, content []byte) (string, error) {
	const op = "Store"

	ref := filepath.Join("uploads", filepath.Base(name))
	if err := os.WriteFile(filepath.Join(s.dir, ref), content, 0644); err != nil {
		return "", fmt.Errorf("%s: failed to store upload: %w", op, err)
	}
	return ref, nil
}

// AppendHistory appends one line to the history log.
func (s *Store) AppendHistory(ctx context.Context, entry invoicing.HistoryEntry) error {
	return s.appendLine("history.log", map[string]any{
		"imported_at": entry.ImportedAt.Format(time.RFC3339),
		"file_name":   entry.FileName,
	})
}

// AppendResult appends one line to the result log.
func (s *Store) AppendResult(ctx context.Context, entry invoicing.ResultEntry) error {
	return s.appendLine("results.log", map[string]any{
		"date":      entry.Date.Format(time.RFC3339),
		"file_name": entry.FileName,
		"report":    entry.Report,
	})
}

func (s *Store) appendLine(name string, record map[string]any) error {
	const op = "appendLine"

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%s: failed to encode record: %w", op, err)
	}

	file, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("%s: failed to open %s: %w", op, name, err)
	}
	defer file.Close()

	if _, err := file.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("%s: failed to append to %s: %w", op, name, err)
	}
	return nil
}
