// Package metrics provides the Prometheus registry for the scraper and exports
// it at the end of a run.
// All metrics are defined in their respective packages (client, dispatch,
// cache, output) to maintain modularity and avoid circular dependencies.
//
// The scraper is a batch job and is never scraped directly, so the registry
// is pushed to a Pushgateway and/or written to a node_exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Gatherer is the gatherer exported by Export unless ExportConfig sets one.
// All metrics are registered via promauto in their respective packages.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// Metrics Documentation
//
// Fetch Metrics (pkg/dispatch):
//   - booktopia_fetch_total{outcome} (Counter): Completed fetches by outcome (ok, http_failure, no_data, extract_error)
//   - booktopia_fetch_duration_seconds (Histogram): Fetch duration including extraction
//   - booktopia_fetch_in_flight (Gauge): Fetches currently running
//
// Request Metrics (pkg/client):
//   - booktopia_requests_total{status} (Counter): Requests by HTTP status, "cache_hit" or "network_error"
//   - booktopia_request_duration_seconds (Histogram): Request duration
//   - booktopia_http_errors_total{class} (Counter): Failed requests by class (client, server, rate_limit, network, unexpected)
//
// Cache Metrics (pkg/cache):
//   - booktopia_cache_hits_total (Counter): Pages found in Redis
//   - booktopia_cache_misses_total (Counter): Lookups without a usable entry
//   - booktopia_cache_revalidated_total (Counter): 304 responses answered from cache
//   - booktopia_cache_errors_total{operation} (Counter): Redis failures
//
// Output Metrics (pkg/output):
//   - booktopia_records_written_total (Counter): Rows written to the output CSV
//
// Example Prometheus Queries:
//
//   # Share of identifiers that produced a full record
//   booktopia_fetch_total{outcome="ok"} / ignoring(outcome) sum(booktopia_fetch_total)
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(booktopia_request_duration_seconds_bucket[5m]))
