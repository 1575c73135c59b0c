// Package testutil provides testing utilities for the Booktopia scraper.
package testutil

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock product page response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockStore is a configurable mock Booktopia storefront for testing.
// Unknown paths answer 404.
type MockStore struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	ConditionalCount  int
	InFlight          int
	MaxInFlight       int
	LastRequestHeader http.Header
}

// NewMockStore creates and starts a new mock storefront.
func NewMockStore() *MockStore {
	mock := &MockStore{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.InFlight++
		if mock.InFlight > mock.MaxInFlight {
			mock.MaxInFlight = mock.InFlight
		}
		mock.LastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		defer func() {
			mock.mu.Lock()
			mock.InFlight--
			mock.mu.Unlock()
		}()

		if exists {
			handler(w, r)
			return
		}
		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL, usable as the client base URL.
func (m *MockStore) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockStore) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.MaxInFlight = 0
	m.LastRequestHeader = nil
}

// BookPath returns the product page path for isbn.
func BookPath(isbn string) string {
	return "/book/" + isbn + ".html"
}

// SetHandler sets a custom handler for the product page of isbn.
func (m *MockStore) SetHandler(isbn string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[BookPath(isbn)] = handler
}

// SetResponse configures a simple response for the product page of isbn.
func (m *MockStore) SetResponse(isbn string, resp MockResponse) {
	m.SetHandler(isbn, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetProduct serves a 200 product page for isbn built from product.
func (m *MockStore) SetProduct(isbn string, product map[string]any) {
	m.SetResponse(isbn, NewProductResponse(product))
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockStore) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockStore) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetMaxInFlight returns the highest number of concurrent requests seen.
func (m *MockStore) GetMaxInFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.MaxInFlight
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockStore) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader.Clone()
}

// SampleProduct returns a complete product object for isbn.
func SampleProduct(isbn string) map[string]any {
	return map[string]any{
		"displayName": "The Book of " + isbn,
		"contributors": []map[string]any{
			{"name": "Jane Doe"},
			{"name": "John Roe"},
		},
		"bindingFormat":   "Paperback",
		"retailPrice":     json.Number("32.99"),
		"salePrice":       json.Number("24.75"),
		"isbn10":          "0000000000",
		"publicationDate": "2021-03-09",
		"publisher":       "Example House",
		"numberOfPages":   352,
	}
}

// NextData wraps product in the Next.js page data envelope.
func NextData(product any) string {
	data, err := json.Marshal(map[string]any{
		"props": map[string]any{
			"pageProps": map[string]any{
				"product": product,
			},
		},
		"page": "/book/[slug]",
	})
	if err != nil {
		panic(fmt.Sprintf("marshal next data: %v", err))
	}
	return string(data)
}

// ProductPage renders an HTML page embedding nextData in a
// <script id="__NEXT_DATA__"> element.
func ProductPage(nextData string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>Booktopia</title>")
	b.WriteString(`<script src="/_next/static/chunks/main.js" defer></script>`)
	b.WriteString("</head><body><div id=\"__next\"><h1>Product</h1></div>")
	b.WriteString(`<script id="__NEXT_DATA__" type="application/json">`)
	b.WriteString(nextData)
	b.WriteString("</script></body></html>")
	return b.String()
}

// PageWithoutData renders an HTML page that has no page data script.
func PageWithoutData(title string) string {
	return "<!DOCTYPE html><html><head><title>" + html.EscapeString(title) +
		"</title></head><body><p>Nothing here</p></body></html>"
}

// NewProductResponse creates a 200 OK product page response.
func NewProductResponse(product map[string]any) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       ProductPage(NextData(product)),
		Headers: map[string]string{
			"Content-Type": "text/html; charset=utf-8",
			"ETag":         `"product-etag"`,
		},
	}
}

// NewNoDataResponse creates a 200 OK response without page data.
func NewNoDataResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       PageWithoutData("Search results"),
		Headers: map[string]string{
			"Content-Type": "text/html; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "<html><body>Internal server error</body></html>",
		Headers: map[string]string{
			"Content-Type": "text/html; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       "Too Many Requests",
		Headers: map[string]string{
			"Retry-After": "30",
		},
	}
}

// NewConditionalHandler creates a handler that responds with 304 when the
// request carries etag in If-None-Match.
func NewConditionalHandler(etag string, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}
