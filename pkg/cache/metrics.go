package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts pages served from Redis without a request.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booktopia_cache_hits_total",
		Help: "Total number of product page cache hits",
	})

	// CacheMisses counts lookups that found no usable entry.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booktopia_cache_misses_total",
		Help: "Total number of product page cache misses",
	})

	// Revalidated counts 304 responses answered from the cache.
	Revalidated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booktopia_cache_revalidated_total",
		Help: "Total number of 304 Not Modified responses served from cache",
	})

	// CacheErrors counts Redis failures by operation.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booktopia_cache_errors_total",
		Help: "Total number of page cache operation errors",
	}, []string{"operation"}) // "get", "set", "delete"
)
