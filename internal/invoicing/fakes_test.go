package invoicing_test

import (
	"context"
	"fmt"
	"time"

	"wortmann-import/internal/invoicing"
)

// fakePorts implements every collaborator port in memory for the tests.
type fakePorts struct {
	settings    invoicing.Settings
	settingsErr error

	customers map[string]invoicing.Customer // internal number -> customer
	items     map[string]invoicing.Item     // article number -> item

	knownCurrencies map[string]bool
	defaultCurrency string
	exactRates      map[string]float64 // "FROM->TO@2006-01-02"
	latestRates     map[string]float64 // "FROM->TO"

	accounts map[string]invoicing.Account

	totalsErr  error
	saveErr    error
	grandTotal func(inv *invoicing.DraftInvoice) float64
	saved      []*invoicing.DraftInvoice

	storeErr error
	stored   []string
	history  []invoicing.HistoryEntry
	results  []invoicing.ResultEntry
}

func newFakePorts() *fakePorts {
	return &fakePorts{
		customers:       make(map[string]invoicing.Customer),
		items:           make(map[string]invoicing.Item),
		knownCurrencies: make(map[string]bool),
		defaultCurrency: "EUR",
		exactRates:      make(map[string]float64),
		latestRates:     make(map[string]float64),
		accounts:        make(map[string]invoicing.Account),
	}
}

func (f *fakePorts) deps() invoicing.Deps {
	return invoicing.Deps{
		Settings:   f,
		Master:     f,
		Currencies: f,
		Accounts:   f,
		Invoices:   f,
		Files:      f,
		Records:    f,
	}
}

func (f *fakePorts) Load(ctx context.Context) (invoicing.Settings, error) {
	return f.settings, f.settingsErr
}

func (f *fakePorts) CustomerByInternalNumber(ctx context.Context, number string) (invoicing.Customer, error) {
	customer, ok := f.customers[number]
	if !ok {
		return invoicing.Customer{}, invoicing.ErrCustomerNotFound
	}
	return customer, nil
}

func (f *fakePorts) ItemByExternalArticleNumber(ctx context.Context, article string) (invoicing.Item, error) {
	item, ok := f.items[article]
	if !ok {
		return invoicing.Item{}, invoicing.ErrItemNotFound
	}
	return item, nil
}

func (f *fakePorts) Exists(ctx context.Context, code string) (bool, error) {
	return f.knownCurrencies[code], nil
}

func (f *fakePorts) DefaultCurrency(ctx context.Context) (string, error) {
	return f.defaultCurrency, nil
}

func (f *fakePorts) SellingRate(ctx context.Context, from, to string, asOf time.Time) (float64, error) {
	rate, ok := f.exactRates[fmt.Sprintf("%s->%s@%s", from, to, asOf.Format("2006-01-02"))]
	if !ok {
		return 0, invoicing.ErrRateNotFound
	}
	return rate, nil
}

func (f *fakePorts) LatestSellingRate(ctx context.Context, from, to string) (float64, error) {
	rate, ok := f.latestRates[from+"->"+to]
	if !ok {
		return 0, invoicing.ErrRateNotFound
	}
	return rate, nil
}

func (f *fakePorts) AccountByName(ctx context.Context, name string) (invoicing.Account, error) {
	account, ok := f.accounts[name]
	if !ok {
		return invoicing.Account{}, invoicing.ErrAccountNotFound
	}
	return account, nil
}

func (f *fakePorts) CalculateTotals(ctx context.Context, invoice *invoicing.DraftInvoice) error {
	if f.totalsErr != nil {
		return f.totalsErr
	}
	if f.grandTotal != nil {
		invoice.GrandTotal = f.grandTotal(invoice)
		return nil
	}
	var total float64
	for _, line := range invoice.Items {
		total += line.Amount
	}
	total *= 1 - invoice.DiscountPercentage/100
	for _, tax := range invoice.Taxes {
		total += total * tax.Rate / 100
	}
	invoice.GrandTotal = total
	return nil
}

func (f *fakePorts) SaveDraft(ctx context.Context, invoice *invoicing.DraftInvoice) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, invoice)
	return nil
}

func (f *fakePorts) Store(ctx context.Context, name string, content []byte) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	f.stored = append(f.stored, name)
	return name, nil
}

func (f *fakePorts) AppendHistory(ctx context.Context, entry invoicing.HistoryEntry) error {
	f.history = append(f.history, entry)
	return nil
}

func (f *fakePorts) AppendResult(ctx context.Context, entry invoicing.ResultEntry) error {
	f.results = append(f.results, entry)
	return nil
}
