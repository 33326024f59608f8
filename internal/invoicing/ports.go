package invoicing

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by collaborator ports. The pipeline matches
// on these with errors.Is to tell "record does not exist" apart from a
// failing backend.
var (
	// ErrCustomerNotFound is returned when no customer record carries
	// the requested internal customer number.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrItemNotFound is returned when no item record carries the
	// requested external article number.
	ErrItemNotFound = errors.New("item not found")

	// ErrAccountNotFound is returned when the configured tax account
	// does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrRateNotFound is returned when no exchange rate matches the
	// requested currency pair.
	ErrRateNotFound = errors.New("exchange rate not found")
)

// Customer is a master-data customer record.
type Customer struct {
	ID   string // record identifier in the accounting system
	Name string
}

// Item is a master-data item record.
type Item struct {
	Code        string
	Name        string
	Description string
}

// Account is an accounting ledger account. TaxRate and Rate are nil
// when the backing record does not carry the attribute.
type Account struct {
	Name    string
	TaxRate *float64
	Rate    *float64
}

// CustomerDiscount is one entry of the per-customer discount table.
type CustomerDiscount struct {
	CustomerName string
	Percent      float64
}

// Settings is the import configuration document of the hosting system.
type Settings struct {
	// TaxAccount is the ledger account the invoice tax line posts to.
	TaxAccount string

	// SuppressZeroInvoices discards invoices whose grand total computes
	// to zero instead of saving them.
	SuppressZeroInvoices bool

	// Discounts maps customer names to invoice-level discount percentages.
	Discounts []CustomerDiscount
}

// SettingsSource loads the import settings document.
type SettingsSource interface {
	Load(ctx context.Context) (Settings, error)
}

// MasterData resolves distributor identifiers to master-data records.
type MasterData interface {
	// CustomerByInternalNumber finds the customer carrying the
	// distributor's internal customer number.
	CustomerByInternalNumber(ctx context.Context, number string) (Customer, error)

	// ItemByExternalArticleNumber finds the item carrying the
	// distributor's article number.
	ItemByExternalArticleNumber(ctx context.Context, article string) (Item, error)
}

// Currencies exposes the tenant's currency configuration and exchange
// rates.
type Currencies interface {
	// Exists reports whether the code is a currency known to the tenant.
	Exists(ctx context.Context, code string) (bool, error)

	// DefaultCurrency returns the tenant's default currency code.
	DefaultCurrency(ctx context.Context) (string, error)

	// SellingRate returns the exchange rate usable for selling that
	// exactly matches the date.
	SellingRate(ctx context.Context, from, to string, asOf time.Time) (float64, error)

	// LatestSellingRate returns the most recent selling rate for the
	// pair, ignoring the date.
	LatestSellingRate(ctx context.Context, from, to string) (float64, error)
}

// Accounts looks up ledger account records.
type Accounts interface {
	AccountByName(ctx context.Context, name string) (Account, error)
}

// InvoiceLine is one item line of a draft invoice.
type InvoiceLine struct {
	ItemCode         string
	CustomerItemCode string // the distributor's article number
	Description      string
	Qty              float64
	Rate             float64
	Amount           float64
}

// TaxLine is the single tax charge of a draft invoice.
type TaxLine struct {
	ChargeType  string
	AccountHead string
	Rate        float64
	Description string
}

// DraftInvoice is the invoice handed to the accounting system. The
// pipeline populates everything except GrandTotal, which the store's
// totals calculation fills in.
type DraftInvoice struct {
	Customer           string // customer record identifier
	CustomerName       string
	PostingDate        time.Time
	DueDate            time.Time
	Currency           string
	ConversionRate     float64
	DiscountPercentage float64
	Items              []InvoiceLine
	Taxes              []TaxLine
	GrandTotal         float64
}

// InvoiceStore persists draft invoices. Invoice numbering and any
// sequence consumed during totals calculation are owned by the
// implementation; the pipeline never saves a suppressed zero-total
// invoice.
type InvoiceStore interface {
	// CalculateTotals computes the invoice totals, including GrandTotal.
	CalculateTotals(ctx context.Context, invoice *DraftInvoice) error

	// SaveDraft persists the invoice as a draft.
	SaveDraft(ctx context.Context, invoice *DraftInvoice) error
}

// FileStore keeps the raw uploaded feed and returns a stable reference
// name for it.
type FileStore interface {
	Store(ctx context.Context, name string, content []byte) (string, error)
}

// HistoryEntry is one line of the append-only import history.
type HistoryEntry struct {
	ImportedAt time.Time
	FileName   string
}

// ResultEntry is one line of the import result log.
type ResultEntry struct {
	Date     time.Time
	FileName string
	Report   string
}

// ImportLog records import runs and their rendered reports.
type ImportLog interface {
	AppendHistory(ctx context.Context, entry HistoryEntry) error
	AppendResult(ctx context.Context, entry ResultEntry) error
}
