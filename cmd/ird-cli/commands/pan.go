package commands

import (
	"log/slog"

	"ird-scraper/lib/scrapers/ird/pansearch"
	"ird-scraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(panCmd)
}

var panCmd = &cobra.Command{
	Use:   "pan <pan>",
	Short: "Looks up the public registration details of a PAN.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		client, err := pansearch.NewClient(pansearch.ClientOptions{
			Endpoints: cfg.Endpoints,
			Http:      cfg.httpOptions(),
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize pan search client", err)
		}

		details, err := client.GetPanDetails(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to get pan details", err)
		}
		slog.Debug("got pan details", "pan", args[0])

		err = renderRecord(details)
		if err != nil {
			serviceutil.Fatal("failed to print pan details", err)
		}
	},
}
