package commands

import (
	"log/slog"
	"time"

	"ird-scraper/lib/scrapers/ird/taxpayer"
	"ird-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	tdsCredentials credentialFlags
	tdsXlsx        *string
)

func init() {
	tdsCredentials = addCredentialFlags(tdsCmd)
	tdsXlsx = tdsCmd.Flags().String("xlsx", "", "Write the transactions to an xlsx file instead of printing them.")
	rootCmd.AddCommand(tdsCmd)
}

var tdsCmd = &cobra.Command{
	Use:   "tds [--xlsx <path/to/output.xlsx>]",
	Short: "Logs into the taxpayer portal and scrapes every TDS transaction filed against the taxpayer.",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := taxpayerClient(tdsCredentials)
		if err != nil {
			serviceutil.Fatal("failed to create taxpayer client", err)
		}

		t1 := time.Now()
		rows, err := client.WithholdingTransactions(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to scrape tds transactions", err)
		}
		slog.Info("scraped tds transactions", "rows", len(rows), "seconds", time.Since(t1).Seconds())

		err = renderRows(rows, *tdsXlsx, "TDS", taxpayer.TdsRowLabel, "RowNumber")
		if err != nil {
			serviceutil.Fatal("failed to write tds transactions", err)
		}
	},
}
