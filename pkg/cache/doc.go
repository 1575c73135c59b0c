// Package cache stores successfully fetched product pages in Redis so that
// repeated runs over the same ISBN list can revalidate instead of
// re-downloading.
//
// The cache never changes the outcome of a lookup: a miss, an expired entry
// or a Redis error all fall through to a normal request.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{ISBN: "9780143127550"}
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch the page
//	}
//
// # Conditional Requests
//
//	if cache.ShouldRevalidate(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// a 304 means entry.Data is still current
//	}
//
// # Metrics
//
//   - booktopia_cache_hits_total
//   - booktopia_cache_misses_total
//   - booktopia_cache_revalidated_total
//   - booktopia_cache_errors_total{operation}
package cache
