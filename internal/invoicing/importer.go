// Package invoicing turns reconciled feed rows into draft sales
// invoices through narrow collaborator ports, and renders the import
// report. Failures below the top level are folded into the outcome's
// error list instead of aborting the batch.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wortmann-import/internal/feed"
	"wortmann-import/internal/logger"
	"wortmann-import/internal/numfmt"
	"wortmann-import/internal/reconcile"
)

// Outcome accumulates counters and errors across one import
// invocation. It is owned by the invocation's call stack and never
// shared across imports.
type Outcome struct {
	LicensesBefore      float64
	LicensesAfter       float64
	InvoicesCreated     int
	SuccessfulCustomers []string
	Errors              []string
}

// Errorf appends a formatted error to the outcome.
func (o *Outcome) Errorf(format string, args ...any) {
	o.Errors = append(o.Errors, fmt.Sprintf(format, args...))
}

// Result is the return value of one import call.
type Result struct {
	Status          string // "success" or "error"
	Message         string
	InvoicesCreated int
	ErrorCount      int
	Report          string
}

// Deps bundles the collaborator ports an Importer needs.
type Deps struct {
	Settings   SettingsSource
	Master     MasterData
	Currencies Currencies
	Accounts   Accounts
	Invoices   InvoiceStore
	Files      FileStore
	Records    ImportLog
}

// Importer runs the end-to-end CSV import: decode, reconcile, group,
// validate, assemble, report, persist.
type Importer struct {
	deps      Deps
	assembler *Assembler
	now       func() time.Time
	log       zerolog.Logger
}

// NewImporter creates an importer over the given collaborators.
func NewImporter(deps Deps) *Importer {
	currency := NewCurrencyResolver(deps.Currencies)
	tax := NewTaxResolver(deps.Accounts)

	return &Importer{
		deps:      deps,
		assembler: NewAssembler(currency, tax, deps.Invoices),
		now:       time.Now,
		log:       logger.WithComponent("importer"),
	}
}

// Run processes one uploaded feed. Row-, customer- and sub-step-level
// failures accumulate in the report; only fatal conditions (unloadable
// settings, undecodable input, failing log persistence) produce an
// error status, and then nothing is persisted for the invocation.
func (imp *Importer) Run(ctx context.Context, fileName string, content []byte) Result {
	settings, err := imp.deps.Settings.Load(ctx)
	if err != nil {
		return imp.errorResult(fmt.Errorf("failed to load import settings: %w", err))
	}

	text, err := feed.DecodeText(content)
	if err != nil {
		return imp.errorResult(err)
	}

	rows, err := feed.ParseRows(text)
	if err != nil {
		return imp.errorResult(err)
	}

	imp.log.Info().
		Str("file", fileName).
		Int("rows", len(rows)).
		Msg("Starting feed import")

	reconciled := reconcile.Reconcile(rows)

	outcome := Outcome{
		LicensesBefore: reconciled.LicensesBefore,
		Errors:         reconciled.Errors,
	}

	buckets, groupErrs := reconcile.GroupByCustomer(reconciled.Rows)
	outcome.Errors = append(outcome.Errors, groupErrs...)

	for _, customerNr := range buckets.Order {
		imp.processCustomer(ctx, customerNr, buckets.Rows[customerNr], settings, &outcome)
	}

	report := RenderReport(outcome.LicensesBefore, outcome.LicensesAfter,
		outcome.InvoicesCreated, outcome.Errors, outcome.SuccessfulCustomers)

	if err := imp.persistRun(ctx, fileName, content, report); err != nil {
		return imp.errorResult(err)
	}

	imp.log.Info().
		Int("invoices_created", outcome.InvoicesCreated).
		Int("errors", len(outcome.Errors)).
		Msg("Feed import completed")

	return Result{
		Status: "success",
		Message: fmt.Sprintf("Import completed. %d invoices created successfully. %d errors logged.",
			outcome.InvoicesCreated, len(outcome.Errors)),
		InvoicesCreated: outcome.InvoicesCreated,
		ErrorCount:      len(outcome.Errors),
		Report:          report,
	}
}

// processCustomer validates one customer bucket and, when anything
// valid remains, hands it to the assembler. Failures stay confined to
// this customer.
func (imp *Importer) processCustomer(ctx context.Context, customerNr string, rows []feed.Row, settings Settings, outcome *Outcome) {
	customer, err := imp.deps.Master.CustomerByInternalNumber(ctx, customerNr)
	switch {
	case errors.Is(err, ErrCustomerNotFound):
		outcome.Errorf("Customer not found for internal number: %s", customerNr)
		return
	case err != nil:
		outcome.Errorf("Error processing customer %s: %v", customerNr, err)
		return
	}

	validRows := imp.validateRows(ctx, customerNr, rows, outcome)
	if len(validRows) == 0 {
		outcome.Errorf("No valid items found for customer %s", customerNr)
		return
	}

	invoice := imp.assembler.BuildInvoice(ctx, customerNr, customer, validRows, settings, outcome)
	if invoice == nil {
		return
	}

	outcome.InvoicesCreated++
	outcome.SuccessfulCustomers = append(outcome.SuccessfulCustomers, customerNr)
	for _, line := range invoice.Items {
		outcome.LicensesAfter += line.Qty
	}
}

// validateRows filters a customer's rows to those whose item resolves
// and whose quantity is positive. Each rejected row yields its own
// error; the remaining rows still go forward.
func (imp *Importer) validateRows(ctx context.Context, customerNr string, rows []feed.Row, outcome *Outcome) []ValidRow {
	var valid []ValidRow

	for _, row := range rows {
		article := strings.TrimSpace(row.ArticleNumber)
		if article == "" {
			continue
		}

		item, err := imp.deps.Master.ItemByExternalArticleNumber(ctx, article)
		switch {
		case errors.Is(err, ErrItemNotFound):
			outcome.Errorf("Item not found for external article number: %s (Customer: %s)", article, customerNr)
			continue
		case err != nil:
			outcome.Errorf("Error looking up item %s (Customer: %s): %v", article, customerNr, err)
			continue
		}

		qty := numfmt.Parse(row.Amount)
		if qty <= 0 {
			outcome.Errorf("Invalid quantity %s for item %s (Customer: %s)", formatQuantity(qty), article, customerNr)
			continue
		}

		valid = append(valid, ValidRow{Row: row, Item: item})
	}

	return valid
}

// persistRun stores the raw upload and appends the history and result
// records.
func (imp *Importer) persistRun(ctx context.Context, fileName string, content []byte, report string) error {
	const op = "persistRun"

	storedName, err := imp.deps.Files.Store(ctx, fileName, content)
	if err != nil {
		return fmt.Errorf("%s: failed to store uploaded file: %w", op, err)
	}

	now := imp.now()
	if err := imp.deps.Records.AppendHistory(ctx, HistoryEntry{ImportedAt: now, FileName: storedName}); err != nil {
		return fmt.Errorf("%s: failed to append import history: %w", op, err)
	}
	if err := imp.deps.Records.AppendResult(ctx, ResultEntry{Date: now, FileName: storedName, Report: report}); err != nil {
		return fmt.Errorf("%s: failed to append import result: %w", op, err)
	}

	return nil
}

func (imp *Importer) errorResult(err error) Result {
	imp.log.Error().Err(err).Msg("Feed import failed")
	return Result{
		Status:  "error",
		Message: fmt.Sprintf("Import failed: %v", err),
	}
}
