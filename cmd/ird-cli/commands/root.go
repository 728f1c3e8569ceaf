package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ird-scraper/lib/restyutil"
	"ird-scraper/lib/telemetry"

	"github.com/spf13/cobra"
)

const serviceName = "ird-cli"

var (
	configPath *string
	verbose    *bool
	perfStats  *bool
	jsonOutput *bool
)

var (
	tel         *telemetry.Telemetry
	transcripts restyutil.InstrumentOutput
)

func init() {
	flags := rootCmd.PersistentFlags()
	configPath = flags.String("config", "config.json5", "The config file holding credentials and endpoint overrides.")
	verbose = flags.BoolP("verbose", "v", false, "Log debug output and write http transcripts to the dev state directory.")
	perfStats = flags.Bool("perf-stats", false, "Record cpu and memory usage to the telemetry backend.")
	jsonOutput = flags.Bool("json", false, "Print results as JSON instead of a table.")
}

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "ird-cli scrapes PAN details, VAT returns and TDS transactions from the Nepal IRD portals.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)

		t, err := telemetry.SetupFromEnv(cmd.Context(), serviceName)
		if err == nil {
			tel = &t
		} else if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to setup telemetry", "err", err)
		}

		if *perfStats {
			telemetry.InstrumentPerfStats(cmd.Context())
		}

		if *verbose {
			output, err := restyutil.NewFilesystemOutput("<dev_state>/resty/" + cmd.Name())
			if err != nil {
				slog.Warn("http transcripts disabled", "err", err)
				return
			}
			slog.Debug("writing http transcripts", "dir", output.Directory())
			transcripts = output
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if tel == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		err := tel.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
