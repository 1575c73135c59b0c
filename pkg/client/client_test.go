package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Sternrassler/booktopia-scraper/internal/testutil"
	"github.com/Sternrassler/booktopia-scraper/pkg/book"
	"github.com/Sternrassler/booktopia-scraper/pkg/cache"
)

// memCache is an in-memory PageCache.
type memCache struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
	touched int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]*cache.Entry)}
}

func (m *memCache) Get(_ context.Context, key cache.Key) (*cache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key.String()]
	if !ok || e.IsExpired() {
		return nil, cache.ErrCacheMiss
	}
	return e, nil
}

func (m *memCache) Set(_ context.Context, key cache.Key, entry *cache.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key.String()] = entry
	return nil
}

func (m *memCache) Touch(_ context.Context, key cache.Key, entry *cache.Entry, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched++
	entry.Expires = time.Now().Add(ttl)
	m.entries[key.String()] = entry
	return nil
}

func newTestClient(t *testing.T, mock *testutil.MockStore, mutate func(*Config)) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BaseURL = mock.URL()
	cfg.Timeout = 5 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid config",
			config: Config{BaseURL: DefaultBaseURL, UserAgent: "Mozilla/5.0", Timeout: DefaultTimeout},
		},
		{
			name:   "zero timeout disables timeout",
			config: Config{UserAgent: "Mozilla/5.0"},
		},
		{
			name:        "empty user agent",
			config:      Config{BaseURL: DefaultBaseURL},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name:        "negative timeout",
			config:      Config{UserAgent: "Mozilla/5.0", Timeout: -time.Second},
			expectError: true,
			errorMsg:    "timeout must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error = %q, want containing %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}

	found := false
	for _, ua := range userAgents {
		if ua == cfg.UserAgent {
			found = true
		}
	}
	if !found {
		t.Errorf("UserAgent %q not from the built-in list", cfg.UserAgent)
	}
}

func TestClient_BookURL(t *testing.T) {
	c, err := New(Config{BaseURL: "https://www.booktopia.com.au/", UserAgent: "ua"})
	if err != nil {
		t.Fatal(err)
	}

	want := "https://www.booktopia.com.au/book/9780143127741.html"
	if got := c.BookURL("9780143127741"); got != want {
		t.Errorf("BookURL() = %q, want %q", got, want)
	}
}

func TestFetch_Success(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()

	isbn := "9780143127741"
	mock.SetProduct(isbn, testutil.SampleProduct(isbn))

	c := newTestClient(t, mock, func(cfg *Config) { cfg.UserAgent = "TestAgent/1.0" })
	res := c.Fetch(context.Background(), isbn)

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Record.Failure != book.FailureNone {
		t.Errorf("Failure = %s, want ok", res.Record.Failure)
	}
	if res.Record.Title != "The Book of "+isbn {
		t.Errorf("Title = %q", res.Record.Title)
	}

	h := mock.GetLastRequestHeader()
	if got := h.Get("User-Agent"); got != "TestAgent/1.0" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := h.Get("Accept-Encoding"); got != AcceptEncodingHeader {
		t.Errorf("Accept-Encoding = %q", got)
	}
	if got := h.Get("Accept-Language"); got != AcceptLanguageHeader {
		t.Errorf("Accept-Language = %q", got)
	}
	if got := h.Get("Accept"); got != AcceptHeader {
		t.Errorf("Accept = %q", got)
	}
}

func TestFetch_Placeholders(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(m *testutil.MockStore, isbn string)
		wantFailure book.Failure
		wantTitle   string
		wantErr     bool
	}{
		{
			name:        "404",
			setup:       func(m *testutil.MockStore, isbn string) {},
			wantFailure: book.FailureHTTP,
			wantTitle:   "Book not found for ISBN %s",
		},
		{
			name: "500",
			setup: func(m *testutil.MockStore, isbn string) {
				m.SetResponse(isbn, testutil.NewServerErrorResponse())
			},
			wantFailure: book.FailureHTTP,
			wantTitle:   "Book not found for ISBN %s",
		},
		{
			name: "429",
			setup: func(m *testutil.MockStore, isbn string) {
				m.SetResponse(isbn, testutil.NewRateLimitResponse())
			},
			wantFailure: book.FailureHTTP,
			wantTitle:   "Book not found for ISBN %s",
		},
		{
			name: "200 without page data",
			setup: func(m *testutil.MockStore, isbn string) {
				m.SetResponse(isbn, testutil.NewNoDataResponse())
			},
			wantFailure: book.FailureNoData,
			wantTitle:   "Book not found for ISBN %s",
		},
		{
			name: "contributor without name",
			setup: func(m *testutil.MockStore, isbn string) {
				p := testutil.SampleProduct(isbn)
				p["contributors"] = []map[string]any{{"role": "Author"}}
				m.SetProduct(isbn, p)
			},
			wantFailure: book.FailureExtract,
			wantTitle:   "Error fetching details for ISBN %s",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockStore()
			defer mock.Close()

			isbn := "9780000000002"
			tt.setup(mock, isbn)

			res := newTestClient(t, mock, nil).Fetch(context.Background(), isbn)

			if (res.Err != nil) != tt.wantErr {
				t.Fatalf("Err = %v, wantErr %v", res.Err, tt.wantErr)
			}
			if res.Record.Failure != tt.wantFailure {
				t.Errorf("Failure = %s, want %s", res.Record.Failure, tt.wantFailure)
			}
			if want := strings.Replace(tt.wantTitle, "%s", isbn, 1); res.Record.Title != want {
				t.Errorf("Title = %q, want %q", res.Record.Title, want)
			}
			if !res.Record.IsPlaceholder() {
				t.Error("expected placeholder record")
			}
		})
	}
}

func TestFetch_ExtractErrorUnwraps(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()

	isbn := "9780000000003"
	p := testutil.SampleProduct(isbn)
	p["publicationDate"] = "not a date"
	mock.SetProduct(isbn, p)

	res := newTestClient(t, mock, nil).Fetch(context.Background(), isbn)
	if !errors.Is(res.Err, ErrBadDate) {
		t.Errorf("Err = %v, want ErrBadDate", res.Err)
	}
	if !strings.Contains(res.Err.Error(), isbn) {
		t.Errorf("Err = %q, want isbn in message", res.Err)
	}
}

func TestFetch_NetworkError(t *testing.T) {
	mock := testutil.NewMockStore()
	baseURL := mock.URL()
	mock.Close()

	c, err := New(Config{BaseURL: baseURL, UserAgent: "ua", Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}

	res := c.Fetch(context.Background(), "9780000000004")
	if res.Err != nil {
		t.Errorf("transport failures are not extraction errors: %v", res.Err)
	}
	if res.Record.Failure != book.FailureHTTP {
		t.Errorf("Failure = %s, want http_failure", res.Record.Failure)
	}
}

func TestFetch_Timeout(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()

	isbn := "9780000000005"
	resp := testutil.NewProductResponse(testutil.SampleProduct(isbn))
	resp.Delay = 300 * time.Millisecond
	mock.SetResponse(isbn, resp)

	c := newTestClient(t, mock, func(cfg *Config) { cfg.Timeout = 50 * time.Millisecond })

	res := c.Fetch(context.Background(), isbn)
	if res.Record.Failure != book.FailureHTTP {
		t.Errorf("Failure = %s, want http_failure", res.Record.Failure)
	}
}

func TestFetch_Cache(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()

	isbn := "9780000000006"
	mock.SetProduct(isbn, testutil.SampleProduct(isbn))

	pages := newMemCache()
	c := newTestClient(t, mock, func(cfg *Config) { cfg.Cache = pages })

	first := c.Fetch(context.Background(), isbn)
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("RequestCount = %d, want 1", got)
	}

	mock.Reset()
	second := c.Fetch(context.Background(), isbn)

	if got := mock.GetRequestCount(); got != 0 {
		t.Errorf("RequestCount after warm cache = %d, want 0", got)
	}
	if first.Record.Title != second.Record.Title {
		t.Errorf("cached title %q differs from %q", second.Record.Title, first.Record.Title)
	}
}

func TestFetch_CacheRevalidate(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()

	isbn := "9780000000007"
	body := testutil.ProductPage(testutil.NextData(testutil.SampleProduct(isbn)))
	mock.SetHandler(isbn, testutil.NewConditionalHandler(`"v1"`, body))

	pages := newMemCache()
	c := newTestClient(t, mock, func(cfg *Config) {
		cfg.Cache = pages
		cfg.Revalidate = true
	})

	first := c.Fetch(context.Background(), isbn)
	second := c.Fetch(context.Background(), isbn)

	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("RequestCount = %d, want 2", got)
	}
	if got := mock.GetConditionalCount(); got != 1 {
		t.Errorf("ConditionalCount = %d, want 1", got)
	}
	if pages.touched != 1 {
		t.Errorf("touched = %d, want 1", pages.touched)
	}
	if second.Err != nil || second.Record.Title != first.Record.Title {
		t.Errorf("revalidated record = %+v, err %v", second.Record, second.Err)
	}
}

func TestFetch_FailuresNotCached(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()

	pages := newMemCache()
	c := newTestClient(t, mock, func(cfg *Config) { cfg.Cache = pages })

	c.Fetch(context.Background(), "9780000000008")
	c.Fetch(context.Background(), "9780000000008")

	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("RequestCount = %d, want 2", got)
	}
	if len(pages.entries) != 0 {
		t.Errorf("cache has %d entries, want 0", len(pages.entries))
	}
}

func TestClient_HeadersImmutable(t *testing.T) {
	c, err := New(Config{UserAgent: "ua"})
	if err != nil {
		t.Fatal(err)
	}

	h := c.Headers()
	h.Set("User-Agent", "changed")

	if got := c.Headers().Get("User-Agent"); got != "ua" {
		t.Errorf("User-Agent = %q after mutating a copy", got)
	}
	if _, ok := c.Headers()["Accept"]; !ok {
		t.Error("Accept header missing")
	}
}

func TestFetch_CorruptBodyCountedOnce(t *testing.T) {
	mock := testutil.NewMockStore()
	defer mock.Close()

	isbn := "9780000000009"
	mock.SetResponse(isbn, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       "definitely not gzip",
		Headers:    map[string]string{"Content-Encoding": "gzip"},
	})

	ok := requestsTotal.WithLabelValues("200")
	network := requestsTotal.WithLabelValues("network_error")
	okBefore, networkBefore := promtest.ToFloat64(ok), promtest.ToFloat64(network)

	res := newTestClient(t, mock, nil).Fetch(context.Background(), isbn)

	if res.Record.Failure != book.FailureHTTP {
		t.Errorf("Failure = %s, want http_failure", res.Record.Failure)
	}
	if got := promtest.ToFloat64(ok) - okBefore; got != 1 {
		t.Errorf("requests{status=200} grew by %v, want 1", got)
	}
	if got := promtest.ToFloat64(network) - networkBefore; got != 0 {
		t.Errorf("requests{status=network_error} grew by %v, want 0", got)
	}
}
