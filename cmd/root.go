package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wortmann-import/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "wortmann-import",
	Short: "Wortmann license feed import - reconcile usage CSVs into draft invoices",
	Long: `wortmann-import ingests the distributor's semicolon-delimited license
usage feed, nets correction rows against their original charge rows,
and creates one draft sales invoice per customer with discount,
currency and tax handling.

Row- and customer-level failures are collected into the import report
instead of aborting the batch.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("wortmann-import executed")

		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
