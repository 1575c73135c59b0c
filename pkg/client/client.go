// Package client fetches Booktopia product pages and turns them into book
// records.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/booktopia-scraper/pkg/book"
	"github.com/Sternrassler/booktopia-scraper/pkg/cache"
	"github.com/Sternrassler/booktopia-scraper/pkg/logging"
)

// Prometheus metrics for product page requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booktopia_requests_total",
		Help: "Total product page requests by status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booktopia_request_duration_seconds",
		Help:    "Product page request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	httpErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booktopia_http_errors_total",
		Help: "Total failed product page requests by error class",
	}, []string{"class"})
)

// DefaultBaseURL is the Booktopia storefront.
const DefaultBaseURL = "https://www.booktopia.com.au"

// DefaultTimeout bounds a single product page request.
const DefaultTimeout = 30 * time.Second

// PageCache stores decoded product pages. *cache.Manager implements it.
type PageCache interface {
	Get(ctx context.Context, key cache.Key) (*cache.Entry, error)
	Set(ctx context.Context, key cache.Key, entry *cache.Entry) error
	Touch(ctx context.Context, key cache.Key, entry *cache.Entry, ttl time.Duration) error
}

// Result is the outcome of one Fetch. Record is always set; Err is non-nil
// only for extraction failures, in which case Record is the
// book.FailureExtract placeholder.
type Result struct {
	Record book.Record
	Err    error
}

// Config holds the client configuration. It is copied by New and never
// changed afterwards.
type Config struct {
	// BaseURL of the storefront, without trailing slash.
	BaseURL string

	// UserAgent sent with every request. Pick it once per run.
	UserAgent string

	// Timeout per request. Zero disables the timeout.
	Timeout time.Duration

	// Cache is optional.
	Cache PageCache

	// CacheTTL for stored pages (cache.DefaultTTL if zero).
	CacheTTL time.Duration

	// Revalidate sends a conditional request for cached pages that carry an
	// ETag or Last-Modified instead of serving them directly.
	Revalidate bool
}

// DefaultConfig returns a configuration with a randomly chosen User-Agent.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: RandomUserAgent(),
		Timeout:   DefaultTimeout,
	}
}

// Client fetches product pages. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	config     Config
	headers    http.Header
	logger     zerolog.Logger
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config:  cfg,
		headers: requestHeaders(cfg.UserAgent),
		logger:  logging.NewLogger("booktopia-client"),
	}, nil
}

// BookURL returns the product page URL for isbn.
func (c *Client) BookURL(isbn string) string {
	return c.config.BaseURL + "/book/" + url.PathEscape(isbn) + ".html"
}

// Headers returns a copy of the headers sent with every request.
func (c *Client) Headers() http.Header {
	return c.headers.Clone()
}

// Fetch requests the product page for isbn and extracts its record.
// Request failures and pages without page data produce a placeholder with a
// nil error; extraction failures are returned in Result.Err.
func (c *Client) Fetch(ctx context.Context, isbn string) Result {
	logger := c.logger.With().Str("isbn", isbn).Logger()

	page, err := c.page(ctx, isbn)
	if err != nil {
		evt := logger.Warn().Err(err)
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			evt = evt.Int("status_code", httpErr.StatusCode).Str("error_class", string(httpErr.Class))
		}
		evt.Msg("Book not found")
		return Result{Record: book.Placeholder(isbn, book.FailureHTTP)}
	}

	data, err := FindNextData(page)
	if errors.Is(err, ErrNoNextData) {
		logger.Warn().Msg("No __NEXT_DATA__ script on product page")
		return Result{Record: book.Placeholder(isbn, book.FailureNoData)}
	}
	if err != nil {
		return Result{
			Record: book.Placeholder(isbn, book.FailureExtract),
			Err:    fmt.Errorf("isbn %s: %w", isbn, err),
		}
	}

	rec, err := ExtractRecord(isbn, data)
	if err != nil {
		return Result{
			Record: book.Placeholder(isbn, book.FailureExtract),
			Err:    fmt.Errorf("isbn %s: %w", isbn, err),
		}
	}

	logger.Debug().Str("title", rec.Title).Msg("Extracted book details")
	return Result{Record: rec}
}

// page returns the decoded product page, from the cache when possible.
func (c *Client) page(ctx context.Context, isbn string) ([]byte, error) {
	key := cache.Key{ISBN: isbn}

	var cached *cache.Entry
	if c.config.Cache != nil {
		entry, err := c.config.Cache.Get(ctx, key)
		switch {
		case err == nil:
			cached = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("isbn", isbn).Msg("Cache get error")
		}
	}

	if cached != nil && !(c.config.Revalidate && cache.ShouldRevalidate(cached)) {
		requestsTotal.WithLabelValues("cache_hit").Inc()
		return cached.Data, nil
	}

	startTime := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BookURL(isbn), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = c.headers.Clone()
	if cached != nil {
		cache.AddConditionalHeaders(req, cached)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.networkError(0, "request failed", err)
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		cache.Revalidated.Inc()
		if err := c.config.Cache.Touch(ctx, key, cached, c.config.CacheTTL); err != nil {
			c.logger.Warn().Err(err).Str("isbn", isbn).Msg("Failed to extend cache entry")
		}
		return cached.Data, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		class := classifyStatus(resp.StatusCode)
		httpErrorsTotal.WithLabelValues(string(class)).Inc()
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, c.networkError(resp.StatusCode, "decode body", err)
	}

	if c.config.Cache != nil {
		c.store(ctx, key, resp, body)
	}
	return body, nil
}

func (c *Client) store(ctx context.Context, key cache.Key, resp *http.Response, body []byte) {
	entry, err := cache.NewEntry(resp, body, c.config.CacheTTL)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		return
	}
	if err := c.config.Cache.Set(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Str("isbn", key.ISBN).Msg("Failed to cache page")
		return
	}
	c.logger.Debug().Str("isbn", key.ISBN).Dur("ttl", entry.TTL()).Msg("Cached page")
}

// networkError records a transport or body failure. A non-zero statusCode
// means the response was already counted under its status.
func (c *Client) networkError(statusCode int, msg string, err error) *HTTPError {
	httpErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
	if statusCode == 0 {
		requestsTotal.WithLabelValues("network_error").Inc()
	}
	return &HTTPError{StatusCode: statusCode, Class: ErrorClassNetwork, Message: msg, Err: err}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
