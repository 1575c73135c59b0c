package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/booktopia-scraper/pkg/book"
	"github.com/Sternrassler/booktopia-scraper/pkg/client"
	"github.com/Sternrassler/booktopia-scraper/pkg/logging"
)

// DefaultMaxWorkers caps the pool size.
const DefaultMaxWorkers = 4

// progressEvery is the number of completions between progress logs.
const progressEvery = 50

// Fetcher fetches one record. *client.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, isbn string) client.Result
}

// Config holds dispatcher configuration.
type Config struct {
	// Workers is the number of concurrent fetches (PoolSize(DefaultMaxWorkers) if zero).
	Workers int
}

// PoolSize returns min(runtime.NumCPU(), max). A non-positive max means
// DefaultMaxWorkers.
func PoolSize(max int) int {
	if max <= 0 {
		max = DefaultMaxWorkers
	}
	cpus := runtime.NumCPU()
	if cpus <= 0 {
		return max
	}
	return min(cpus, max)
}

// Dispatcher fans fetches out over a fixed number of workers.
type Dispatcher struct {
	fetcher Fetcher
	workers int
	logger  zerolog.Logger
}

// New creates a dispatcher.
func New(fetcher Fetcher, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = PoolSize(DefaultMaxWorkers)
	}
	return &Dispatcher{
		fetcher: fetcher,
		workers: cfg.Workers,
		logger:  logging.NewLogger("dispatcher"),
	}
}

// Workers returns the pool size.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// Run fetches every identifier and returns one record per identifier in
// completion order. If ctx is cancelled Run returns ctx.Err() and no records.
func (d *Dispatcher) Run(ctx context.Context, isbns []string) ([]book.Record, error) {
	start := time.Now()

	d.logger.Info().
		Int("total", len(isbns)).
		Int("workers", d.workers).
		Msg("Starting record fetch")

	queue := make(chan string, len(isbns))
	for _, isbn := range isbns {
		queue <- isbn
	}
	close(queue)

	results := make(chan book.Record, d.workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		workerID := i
		g.Go(func() error {
			return d.worker(gctx, workerID, queue, results)
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(results)
	}()

	records := make([]book.Record, 0, len(isbns))
	outcomes := make(map[book.Failure]int)
	for rec := range results {
		records = append(records, rec)
		outcomes[rec.Failure]++

		if len(records)%progressEvery == 0 {
			d.logger.Info().
				Int("fetched", len(records)).
				Int("total", len(isbns)).
				Float64("progress_pct", float64(len(records))/float64(len(isbns))*100).
				Msg("Fetch progress")
		}
	}

	if err := <-done; err != nil {
		d.logger.Warn().
			Err(err).
			Int("fetched", len(records)).
			Int("total", len(isbns)).
			Msg("Fetch aborted")
		return nil, fmt.Errorf("fetch aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch aborted: %w", err)
	}

	d.logger.Info().
		Int("records", len(records)).
		Int("ok", outcomes[book.FailureNone]).
		Int("not_found", outcomes[book.FailureHTTP]+outcomes[book.FailureNoData]).
		Int("errors", outcomes[book.FailureExtract]).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return records, nil
}

// worker processes identifiers from the queue until it is drained or ctx
// is done.
func (d *Dispatcher) worker(ctx context.Context, workerID int, queue <-chan string, results chan<- book.Record) error {
	processed := 0

	for isbn := range queue {
		if err := ctx.Err(); err != nil {
			d.logger.Debug().
				Int("worker_id", workerID).
				Int("processed", processed).
				Msg("Worker stopping (context cancelled)")
			return err
		}

		rec := d.fetch(ctx, workerID, isbn)

		select {
		case results <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
		processed++
	}

	if processed > 0 {
		d.logger.Debug().
			Int("worker_id", workerID).
			Int("processed", processed).
			Msg("Worker completed")
	}
	return nil
}

// fetch runs one Fetch and converts extraction errors and panics into the
// FailureExtract placeholder.
func (d *Dispatcher) fetch(ctx context.Context, workerID int, isbn string) (rec book.Record) {
	start := time.Now()
	fetchInFlight.Inc()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("isbn", isbn).
				Int("worker_id", workerID).
				Interface("panic", r).
				Msg(book.FailureExtract.Message(isbn))
			rec = book.Placeholder(isbn, book.FailureExtract)
		}
		fetchInFlight.Dec()
		fetchDuration.Observe(time.Since(start).Seconds())
		fetchTotal.WithLabelValues(rec.Failure.String()).Inc()
	}()

	res := d.fetcher.Fetch(ctx, isbn)
	if res.Err != nil {
		d.logger.Error().
			Err(res.Err).
			Str("isbn", isbn).
			Int("worker_id", workerID).
			Msg(book.FailureExtract.Message(isbn))
		return book.Placeholder(isbn, book.FailureExtract)
	}
	return res.Record
}
