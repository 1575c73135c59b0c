package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/booktopia-scraper/pkg/config"
)

// flagValues mirrors the configurable settings. A flag only overrides the
// environment when it was set on the command line.
type flagValues struct {
	envFile         string
	inputURL        string
	inputPath       string
	outputPath      string
	skipDownload    bool
	workers         int
	timeout         time.Duration
	userAgent       string
	baseURL         string
	redisAddr       string
	cacheTTL        time.Duration
	logLevel        string
	logPretty       bool
	pushgatewayURL  string
	metricsTextfile string
}

func newRootCmd() *cobra.Command {
	var fv flagValues

	cmd := &cobra.Command{
		Use:   "booktopia-scraper",
		Short: "Fetch book details from Booktopia for a list of ISBN-13s",
		Long: "Downloads the input CSV, looks up every ISBN13 on booktopia.com.au " +
			"with a small worker pool and writes one row per identifier to the output CSV.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(fv.envFile)
			if err != nil {
				return err
			}
			applyFlags(cmd, &fv, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&fv.envFile, "env-file", ".env", "optional dotenv file read before the environment")
	f.StringVar(&fv.inputURL, "input-url", "", "URL of the input CSV (default: shared Drive list)")
	f.StringVar(&fv.inputPath, "input", "input_list.csv", "local path of the input CSV")
	f.StringVar(&fv.outputPath, "output", "book_details.csv", "path of the output CSV")
	f.BoolVar(&fv.skipDownload, "skip-download", false, "read an existing input file instead of downloading it")
	f.IntVar(&fv.workers, "workers", 4, "maximum concurrent fetches, capped by the CPU count")
	f.DurationVar(&fv.timeout, "timeout", 30*time.Second, "per-request timeout, 0 disables it")
	f.StringVar(&fv.userAgent, "user-agent", "", "User-Agent header (default: random browser string)")
	f.StringVar(&fv.baseURL, "base-url", "https://www.booktopia.com.au", "storefront base URL")
	f.StringVar(&fv.redisAddr, "redis-addr", "", "Redis address for the page cache (disabled if empty)")
	f.DurationVar(&fv.cacheTTL, "cache-ttl", 24*time.Hour, "lifetime of cached pages")
	f.StringVar(&fv.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.BoolVar(&fv.logPretty, "log-pretty", false, "human-readable console logs")
	f.StringVar(&fv.pushgatewayURL, "pushgateway", "", "Pushgateway URL to push run metrics to")
	f.StringVar(&fv.metricsTextfile, "metrics-textfile", "", "write run metrics to this .prom file")

	return cmd
}

func applyFlags(cmd *cobra.Command, fv *flagValues, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("input-url") {
		cfg.InputURL = fv.inputURL
	}
	if changed("input") {
		cfg.InputPath = fv.inputPath
	}
	if changed("output") {
		cfg.OutputPath = fv.outputPath
	}
	if changed("skip-download") {
		cfg.SkipDownload = fv.skipDownload
	}
	if changed("workers") {
		cfg.MaxWorkers = fv.workers
	}
	if changed("timeout") {
		cfg.Timeout = fv.timeout
	}
	if changed("user-agent") {
		cfg.UserAgent = fv.userAgent
	}
	if changed("base-url") {
		cfg.BaseURL = fv.baseURL
	}
	if changed("redis-addr") {
		cfg.Redis.Addr = fv.redisAddr
	}
	if changed("cache-ttl") {
		cfg.Redis.TTL = fv.cacheTTL
	}
	if changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if changed("log-pretty") {
		cfg.LogPretty = fv.logPretty
	}
	if changed("pushgateway") {
		cfg.PushgatewayURL = fv.pushgatewayURL
	}
	if changed("metrics-textfile") {
		cfg.MetricsTextfile = fv.metricsTextfile
	}
}
