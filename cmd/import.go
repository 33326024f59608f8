package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"wortmann-import/internal/config"
	"wortmann-import/internal/invoicing"
	"wortmann-import/internal/logger"
	"wortmann-import/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a Wortmann license usage CSV and create draft invoices",
	Long: `Import a semicolon-delimited, Windows-1252 encoded license usage CSV.

The feed is reconciled (correction rows netted against their charge
rows), grouped by customer, validated against master data, and turned
into one draft sales invoice per customer. The run ends with a textual
report listing totals, successful customers and every collected error.

Master data, settings and all output live under the data directory
(WORTMANN_DATA_DIR, default "data"):
  masterdata.json  customers, items, currencies, rates, accounts
  settings.json    tax account, discount table, zero-invoice suppression
  invoices/        created draft invoices
  uploads/         stored raw feed files
  history.log      append-only import history
  results.log      import reports`,
	Example: `  # Import a feed file
  wortmann-import import --file wortmann_2026-08.csv

  # Import a base64-encoded upload against a different data directory
  wortmann-import import --file upload.b64 --data-dir /srv/wortmann`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("file", "", "Path to the feed CSV (raw or base64-encoded)")
	importCmd.Flags().String("data-dir", "", "Data directory (overrides WORTMANN_DATA_DIR)")
	_ = importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")

	filePath, _ := cmd.Flags().GetString("file")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if dataDir == "" {
		dataDir = cfg.DataDir
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read feed file: %w", err)
	}

	log.Info().
		Str("file", filePath).
		Str("data_dir", dataDir).
		Int("bytes", len(content)).
		Msg("Starting license feed import")

	fileStore, err := store.Open(dataDir, cfg.SettingsFile, cfg.MasterDataFile)
	if err != nil {
		return fmt.Errorf("failed to open data directory: %w", err)
	}

	importer := invoicing.NewImporter(invoicing.Deps{
		Settings:   fileStore,
		Master:     fileStore,
		Currencies: fileStore,
		Accounts:   fileStore,
		Invoices:   fileStore,
		Files:      fileStore,
		Records:    fileStore,
	})

	result := importer.Run(context.Background(), filepath.Base(filePath), content)

	fmt.Println(result.Report)

	if result.Status != "success" {
		return fmt.Errorf("%s", result.Message)
	}

	log.Info().
		Int("invoices_created", result.InvoicesCreated).
		Int("errors", result.ErrorCount).
		Msg(result.Message)

	return nil
}
