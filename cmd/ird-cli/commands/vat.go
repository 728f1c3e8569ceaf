package commands

import (
	"cmp"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"ird-scraper/lib/scrapers/ird/core"
	"ird-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	vatCredentials credentialFlags
	vatXlsx        *string
)

func init() {
	vatCredentials = addCredentialFlags(vatCmd)
	vatXlsx = vatCmd.Flags().String("xlsx", "", "Write the returns to an xlsx file instead of printing them.")
	rootCmd.AddCommand(vatCmd)
}

// orderReturns sorts returns by submission number, numeric keys come first
// in numeric order.
func orderReturns(returns map[string]core.Record) []core.Record {
	keys := make([]string, 0, len(returns))
	for k := range returns {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		na, errA := strconv.ParseInt(a, 10, 64)
		nb, errB := strconv.ParseInt(b, 10, 64)
		switch {
		case errA == nil && errB == nil:
			return cmp.Compare(na, nb)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		}
		return cmp.Compare(a, b)
	})

	out := make([]core.Record, len(keys))
	for i, k := range keys {
		out[i] = returns[k]
	}
	return out
}

var vatCmd = &cobra.Command{
	Use:   "vat [--xlsx <path/to/output.xlsx>]",
	Short: "Logs into the taxpayer portal and scrapes every VAT return.",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := taxpayerClient(vatCredentials)
		if err != nil {
			serviceutil.Fatal("failed to create taxpayer client", err)
		}

		t1 := time.Now()
		returns, err := client.VatReturns(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to scrape vat returns", err)
		}
		slog.Info("scraped vat returns", "count", len(returns), "seconds", time.Since(t1).Seconds())

		err = renderRows(orderReturns(returns), *vatXlsx, "VAT Returns", "SubmissionNo")
		if err != nil {
			serviceutil.Fatal("failed to write vat returns", err)
		}
	},
}
