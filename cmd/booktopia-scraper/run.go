package main

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/booktopia-scraper/pkg/cache"
	"github.com/Sternrassler/booktopia-scraper/pkg/client"
	"github.com/Sternrassler/booktopia-scraper/pkg/config"
	"github.com/Sternrassler/booktopia-scraper/pkg/dispatch"
	"github.com/Sternrassler/booktopia-scraper/pkg/input"
	"github.com/Sternrassler/booktopia-scraper/pkg/logging"
	"github.com/Sternrassler/booktopia-scraper/pkg/metrics"
	"github.com/Sternrassler/booktopia-scraper/pkg/output"
)

// run executes one scrape: download, fetch, write, export metrics. Nothing
// is written when it fails or ctx is cancelled before the fetch completes.
func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
	})

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = client.RandomUserAgent()
	}
	logger.Debug().Str("user_agent", userAgent).Msg("Selected User-Agent")

	pages, closeCache := openCache(ctx, cfg, logger)
	defer closeCache()

	loader := &input.Loader{
		Downloader:   input.NewDownloader(cfg.Timeout, userAgent),
		URL:          cfg.InputURL,
		Path:         cfg.InputPath,
		SkipDownload: cfg.SkipDownload,
	}
	isbns, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}

	fetcher, err := client.New(client.Config{
		BaseURL:   cfg.BaseURL,
		UserAgent: userAgent,
		Timeout:   cfg.Timeout,
		Cache:     pages,
		CacheTTL:  cfg.Redis.TTL,
	})
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	d := dispatch.New(fetcher, dispatch.Config{Workers: dispatch.PoolSize(cfg.MaxWorkers)})
	records, err := d.Run(ctx, isbns)
	if err != nil {
		return err
	}

	if err := output.WriteFile(cfg.OutputPath, records); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	exportCfg := metrics.ExportConfig{
		PushgatewayURL: cfg.PushgatewayURL,
		Textfile:       cfg.MetricsTextfile,
	}
	if err := metrics.Export(ctx, exportCfg); err != nil {
		logger.Warn().Err(err).Msg("Failed to export metrics")
	}

	fmt.Fprintf(stdout, "Book details saved to %s\n", cfg.OutputPath)
	return nil
}

// openCache connects to Redis when configured. An unreachable Redis
// disables caching for the run.
func openCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (client.PageCache, func()) {
	if !cfg.CacheEnabled() {
		return nil, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, page cache disabled")
		rdb.Close()
		return nil, func() {}
	}

	logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("Page cache enabled")
	return cache.NewManager(rdb), func() { rdb.Close() }
}
