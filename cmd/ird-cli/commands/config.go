package commands

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"ird-scraper/lib/configutil"
	"ird-scraper/lib/scrapers/ird/core"
	"ird-scraper/lib/scrapers/ird/taxpayer"

	"github.com/spf13/cobra"
)

type TdsConfig struct {
	FromDate string `json:"from_date"`
	PageSize int    `json:"page_size"`
}

type Config struct {
	Pan              string         `json:"pan"`
	Password         string         `json:"password"`
	Endpoints        core.Endpoints `json:"endpoints"`
	TimeoutSeconds   int            `json:"timeout_seconds"`
	UserAgent        string         `json:"user_agent"`
	ReportedIP       string         `json:"reported_ip"`
	CloudflareBypass bool           `json:"cloudflare_bypass"`
	Tds              TdsConfig      `json:"tds"`
}

// loadConfig reads the config file, a missing file is the same as an empty
// one since every field has a default or a flag.
func loadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using defaults", "path", path)
		return Config{}, nil
	}
	return cfg, err
}

func (c Config) httpOptions() core.HttpOptions {
	return core.HttpOptions{
		Timeout:          time.Duration(c.TimeoutSeconds) * time.Second,
		UserAgent:        c.UserAgent,
		CloudflareBypass: c.CloudflareBypass,
		Transcripts:      transcripts,
	}
}

func (c Config) taxpayerOptions() taxpayer.ClientOptions {
	return taxpayer.ClientOptions{
		Credentials: taxpayer.Credentials{
			Pan:      c.Pan,
			Password: c.Password,
		},
		Endpoints:   c.Endpoints,
		Http:        c.httpOptions(),
		ReportedIP:  c.ReportedIP,
		TdsFromDate: c.Tds.FromDate,
		TdsPageSize: c.Tds.PageSize,
	}
}

var errMissingCredentials = errors.New("a pan and password are required, set them in the config file or pass --pan and --password")

type credentialFlags struct {
	pan      *string
	password *string
}

func addCredentialFlags(cmd *cobra.Command) credentialFlags {
	return credentialFlags{
		pan:      cmd.Flags().String("pan", "", "The taxpayer's PAN, overrides the config file."),
		password: cmd.Flags().String("password", "", "The taxpayer portal password, overrides the config file."),
	}
}

// apply overrides the config's credentials with any flags that were set.
func (f credentialFlags) apply(cfg Config) (Config, error) {
	if *f.pan != "" {
		cfg.Pan = *f.pan
	}
	if *f.password != "" {
		cfg.Password = *f.password
	}
	if cfg.Pan == "" || cfg.Password == "" {
		return cfg, errMissingCredentials
	}
	return cfg, nil
}

// taxpayerClient reads the config, applies the credential flags and returns
// a client that has not logged in yet.
func taxpayerClient(flags credentialFlags) (*taxpayer.Client, error) {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	cfg, err = flags.apply(cfg)
	if err != nil {
		return nil, err
	}
	return taxpayer.NewClient(cfg.taxpayerOptions()), nil
}
