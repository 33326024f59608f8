package invoicing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wortmann-import/internal/feed"
	"wortmann-import/internal/logger"
	"wortmann-import/internal/numfmt"
)

// ValidRow pairs a reconciled feed row with its resolved master-data
// item.
type ValidRow struct {
	Row  feed.Row
	Item Item
}

// Assembler builds one draft sales invoice per customer from validated
// rows.
type Assembler struct {
	currency *CurrencyResolver
	tax      *TaxResolver
	invoices InvoiceStore
	now      func() time.Time
	log      zerolog.Logger
}

// NewAssembler creates an invoice assembler.
func NewAssembler(currency *CurrencyResolver, tax *TaxResolver, invoices InvoiceStore) *Assembler {
	return &Assembler{
		currency: currency,
		tax:      tax,
		invoices: invoices,
		now:      time.Now,
		log:      logger.WithComponent("invoice-assembler"),
	}
}

// BuildInvoice assembles, totals and persists a draft invoice for one
// customer. It returns nil without an outcome error when no invoice is
// warranted: zero usable lines (the caller already flagged that), or a
// zero grand total under the suppression setting. Sub-step failures are
// appended to the outcome and the remaining steps still run, so a
// totals failure does not prevent the save attempt.
func (a *Assembler) BuildInvoice(ctx context.Context, customerNr string, customer Customer, rows []ValidRow, settings Settings, outcome *Outcome) *DraftInvoice {
	discount := customerDiscount(customer.Name, settings.Discounts)

	currencyLabel := ""
	if len(rows) > 0 {
		// Uniform currency per customer batch; the first row decides.
		currencyLabel = rows[0].Row.Currency
	}

	code, err := a.currency.ResolveCurrency(ctx, currencyLabel)
	if err != nil {
		outcome.Errorf("Error resolving currency for customer %s: %v", customerNr, err)
		return nil
	}

	defaultCurrency, err := a.currency.currencies.DefaultCurrency(ctx)
	if err != nil {
		outcome.Errorf("Error resolving default currency for customer %s: %v", customerNr, err)
		return nil
	}

	postingDate := a.now()
	invoice := &DraftInvoice{
		Customer:           customer.ID,
		CustomerName:       customer.Name,
		PostingDate:        postingDate,
		DueDate:            postingDate.AddDate(0, 1, 0),
		Currency:           code,
		ConversionRate:     a.currency.ResolveRate(ctx, code, defaultCurrency, postingDate),
		DiscountPercentage: discount,
	}

	for _, valid := range rows {
		qty := numfmt.Parse(valid.Row.Amount)
		if qty <= 0 {
			// Already filtered upstream; rechecked so a bad row can
			// never produce a negative line.
			continue
		}

		description := valid.Item.Description
		if description == "" {
			description = valid.Item.Name
		}

		invoice.Items = append(invoice.Items, InvoiceLine{
			ItemCode:         valid.Item.Code,
			CustomerItemCode: strings.TrimSpace(valid.Row.ArticleNumber),
			Description:      description,
			Qty:              qty,
			Rate:             numfmt.Parse(valid.Row.Price),
			Amount:           numfmt.Parse(valid.Row.TotalPrice),
		})
	}

	if len(invoice.Items) == 0 {
		return nil
	}

	taxRate := a.tax.ResolveTaxRate(ctx, settings)
	invoice.Taxes = append(invoice.Taxes, TaxLine{
		ChargeType:  "On Net Total",
		AccountHead: settings.TaxAccount,
		Rate:        taxRate,
		Description: fmt.Sprintf("VAT %g%%", taxRate),
	})

	if err := a.invoices.CalculateTotals(ctx, invoice); err != nil {
		outcome.Errorf("Error calculating totals for customer %s: %v", customerNr, err)
	}

	if settings.SuppressZeroInvoices && invoice.GrandTotal == 0 {
		a.log.Info().
			Str("customer", customerNr).
			Msg("Suppressing zero-total invoice")
		return nil
	}

	if err := a.invoices.SaveDraft(ctx, invoice); err != nil {
		outcome.Errorf("Error creating invoice for customer %s: %v", customerNr, err)
		return nil
	}

	a.log.Info().
		Str("customer", customerNr).
		Str("currency", invoice.Currency).
		Float64("conversion_rate", invoice.ConversionRate).
		Float64("discount_percentage", invoice.DiscountPercentage).
		Int("lines", len(invoice.Items)).
		Msg("Draft invoice created")

	return invoice
}

// customerDiscount returns the first discount-table entry whose name
// matches the customer name after trimming; the match itself is
// case-sensitive. No match means no discount.
func customerDiscount(customerName string, discounts []CustomerDiscount) float64 {
	for _, entry := range discounts {
		if entry.CustomerName != "" && strings.TrimSpace(entry.CustomerName) == strings.TrimSpace(customerName) {
			return entry.Percent
		}
	}
	return 0
}
