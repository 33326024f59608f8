package invoicing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wortmann-import/internal/invoicing"
)

const feedHeader = "CustomCustomerNr;ReferenceNumber;ArticleNumber_Mandant;Amount;Price;TotalPrice;Currency\n"

func seedMasterData(ports *fakePorts) {
	ports.customers["K1001"] = invoicing.Customer{ID: "CUST-0001", Name: "CustCorp GmbH"}
	ports.items["ART-1"] = invoicing.Item{Code: "ITM-1", Name: "Office License", Description: "Office license subscription"}
	ports.items["ART-2"] = invoicing.Item{Code: "ITM-2", Name: "Backup License"}
	ports.accounts["1520"] = invoicing.Account{Name: "1520 - Abziehbare Vorsteuer 19 % - AZ ITD", TaxRate: floatPtr(19.0)}
	ports.settings = invoicing.Settings{TaxAccount: "1520"}
}

func TestRun_ReconcilesAndCreatesInvoice(t *testing.T) {
	ports := newFakePorts()
	seedMasterData(ports)

	content := []byte(feedHeader +
		"K1001;Ref1;ART-1;5;2,5;12,5;Euro\n" +
		"K1001;Ref1;ART-1;-2;2,5;-5;Euro\n" +
		"K1001;Ref2;ART-2;3;4;12;Euro\n")

	importer := invoicing.NewImporter(ports.deps())
	result := importer.Run(context.Background(), "wortmann_2026-08.csv", content)

	assert.Equal(t, "success", result.Status)
	assert.Equal(t, 1, result.InvoicesCreated)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Equal(t, "Import completed. 1 invoices created successfully. 0 errors logged.", result.Message)

	assert.Contains(t, result.Report, "Gesamtzahl Lizenzen vorher: 10")
	assert.Contains(t, result.Report, "Gesamtzahl Lizenzen nachher: 6")
	assert.Contains(t, result.Report, "Gesamtzahl erz. Rechnungen: 1")
	assert.Contains(t, result.Report, "Erfolgreiche Kunden: K1001")
	assert.NotContains(t, result.Report, "Fehler")

	require.Len(t, ports.saved, 1)
	invoice := ports.saved[0]
	assert.Equal(t, "CUST-0001", invoice.Customer)
	assert.Equal(t, "EUR", invoice.Currency)
	assert.InDelta(t, 1.0, invoice.ConversionRate, 1e-9)
	require.Len(t, invoice.Items, 2)

	merged := invoice.Items[0]
	assert.Equal(t, "ITM-1", merged.ItemCode)
	assert.Equal(t, "ART-1", merged.CustomerItemCode)
	assert.Equal(t, "Office license subscription", merged.Description)
	assert.InDelta(t, 3.0, merged.Qty, 1e-9)
	assert.InDelta(t, 2.5, merged.Rate, 1e-9)
	assert.InDelta(t, 7.5, merged.Amount, 1e-9)

	standalone := invoice.Items[1]
	assert.Equal(t, "ITM-2", standalone.ItemCode)
	assert.Equal(t, "Backup License", standalone.Description, "item name fills in for a missing description")
	assert.InDelta(t, 3.0, standalone.Qty, 1e-9)

	require.Len(t, invoice.Taxes, 1)
	assert.Equal(t, "On Net Total", invoice.Taxes[0].ChargeType)
	assert.Equal(t, "1520", invoice.Taxes[0].AccountHead)
	assert.InDelta(t, 19.0, invoice.Taxes[0].Rate, 1e-9)
	assert.Equal(t, "VAT 19%", invoice.Taxes[0].Description)

	assert.Equal(t, []string{"wortmann_2026-08.csv"}, ports.stored)
	require.Len(t, ports.history, 1)
	require.Len(t, ports.results, 1)
	assert.Equal(t, result.Report, ports.results[0].Report)
}

func TestRun_UnknownCustomer(t *testing.T) {
	ports := newFakePorts()
	seedMasterData(ports)

	content := []byte(feedHeader + "ZZZ;Ref1;ART-1;5;2;10;Euro\n")

	result := invoicing.NewImporter(ports.deps()).Run(context.Background(), "feed.csv", content)

	assert.Equal(t, "success", result.Status)
	assert.Equal(t, 0, result.InvoicesCreated)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Contains(t, result.Report, "ZZZ")
	assert.Empty(t, ports.saved)
}

func TestRun_AllItemsUnknown(t *testing.T) {
	ports := newFakePorts()
	seedMasterData(ports)

	content := []byte(feedHeader +
		"K1001;Ref1;NOPE-1;5;2;10;Euro\n" +
		"K1001;Ref2;NOPE-2;3;1;3;Euro\n")

	result := invoicing.NewImporter(ports.deps()).Run(context.Background(), "feed.csv", content)

	assert.Equal(t, 0, result.InvoicesCreated)
	assert.Equal(t, 3, result.ErrorCount, "one per unknown item plus the no-valid-items error")
	assert.Contains(t, result.Report, "Item not found for external article number: NOPE-1 (Customer: K1001)")
	assert.Contains(t, result.Report, "No valid items found for customer K1001")
	assert.Empty(t, ports.saved)
}

func TestRun_NonPositiveQuantityRowDropped(t *testing.T) {
	ports := newFakePorts()
	seedMasterData(ports)

	content := []byte(feedHeader +
		"K1001;Ref1;ART-1;0;2;0;Euro\n" +
		"K1001;Ref2;ART-2;3;1;3;Euro\n")

	result := invoicing.NewImporter(ports.deps()).Run(context.Background(), "feed.csv", content)

	assert.Equal(t, 1, result.InvoicesCreated)
	assert.Contains(t, result.Report, "Invalid quantity 0 for item ART-1 (Customer: K1001)")
	require.Len(t, ports.saved, 1)
	require.Len(t, ports.saved[0].Items, 1)
	assert.Equal(t, "ITM-2", ports.saved[0].Items[0].ItemCode)
}

func TestRun_SuppressesZeroTotalInvoice(t *testing.T) {
	ports := newFakePorts()
	seedMasterData(ports)
	ports.settings.SuppressZeroInvoices = true
	ports.grandTotal = func(inv *invoicing.DraftInvoice) float64 { return 0 }

	content := []byte(feedHeader + "K1001;Ref1;ART-1;5;0;0;Euro\n")

	result := invoicing.NewImporter(ports.deps()).Run(context.Background(), "feed.csv", content)

	assert.Equal(t, "success", result.Status)
	assert.Equal(t, 0, result.InvoicesCreated)
	assert.Equal(t, 0, result.ErrorCount, "discarding a zero invoice is not an error")
	assert.Empty(t, ports.saved)
	assert.NotContains(t, result.Report, "Erfolgreiche Kunden")
}

func TestRun_UnmappedCurrencyFallsBackToDefault(t *testing.T) {
	ports := newFakePorts()
	seedMasterData(ports)

	content := []byte(feedHeader + "K1001;Ref1;ART-1;5;2;10;Martian Credits\n")

	result := invoicing.NewImporter(ports.deps()).Run(context.Background(), "feed.csv", content)

	assert.Equal(t, 1, result.InvoicesCreated)
	assert.Equal(t, 0, result.ErrorCount)
	require.Len(t, ports.saved, 1)
	assert.Equal(t, "EUR", ports.saved[0].Currency)
	assert.InDelta(t, 1.0, ports.saved[0].ConversionRate, 1e-9)
}

func TestRun_DiscountApplied(t *testing.T) {
	ports := newFakePorts()
	seedMasterData(ports)
	ports.settings.Discounts = []invoicing.CustomerDiscount{
		{CustomerName: "Other AG", Percent: 10},
		{CustomerName: " CustCorp GmbH ", Percent: 5},
		{CustomerName: "CustCorp GmbH", Percent: 7},
	}

	content := []byte(feedHeader + "K1001;Ref1;ART-1;5;2;10;Euro\n")

	result := invoicing.NewImporter(ports.deps()).Run(context.Background(), "feed.csv", content)

	assert.Equal(t, 1, result.InvoicesCreated)
	require.Len(t, ports.saved, 1)
	assert.InDelta(t, 5.0, ports.saved[0].DiscountPercentage, 1e-9, "first trimmed match wins")
}

func TestRun_TotalsFailureStillSaves(t *testing.T) {
	ports := newFakePorts()
	seedMasterData(ports)
	ports.totalsErr = errors.New("totals engine unavailable")

	content := []byte(feedHeader + "K1001;Ref1;ART-1;5;2;10;Euro\n")

	result := invoicing.NewImporter(ports.deps()).Run(context.Background(), "feed.csv", content)

	assert.Equal(t, 1, result.InvoicesCreated)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Contains(t, result.Report, "Error calculating totals for customer K1001")
	assert.Len(t, ports.saved, 1, "a totals failure must not prevent the save attempt")
}

func TestRun_SettingsLoadFailureIsFatal(t *testing.T) {
	ports := newFakePorts()
	seedMasterData(ports)
	ports.settingsErr = errors.New("settings document unavailable")

	result := invoicing.NewImporter(ports.deps()).Run(context.Background(), "feed.csv", []byte(feedHeader))

	assert.Equal(t, "error", result.Status)
	assert.Contains(t, result.Message, "Import failed")
	assert.Empty(t, result.Report)
	assert.Empty(t, ports.stored)
	assert.Empty(t, ports.history)
}

func TestRun_EmptyContentIsFatal(t *testing.T) {
	ports := newFakePorts()
	seedMasterData(ports)

	result := invoicing.NewImporter(ports.deps()).Run(context.Background(), "feed.csv", []byte(""))

	assert.Equal(t, "error", result.Status)
	assert.Contains(t, result.Message, "Import failed")
	assert.Empty(t, ports.history)
}

func TestRun_FileStoreFailureIsFatal(t *testing.T) {
	ports := newFakePorts()
	seedMasterData(ports)
	ports.storeErr = errors.New("disk full")

	content := []byte(feedHeader + "K1001;Ref1;ART-1;5;2;10;Euro\n")

	result := invoicing.NewImporter(ports.deps()).Run(context.Background(), "feed.csv", content)

	assert.Equal(t, "error", result.Status)
	assert.Empty(t, ports.history, "no history without a stored file reference")
}
