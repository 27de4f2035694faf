// Package cache keeps backend GET responses in Redis so repeated list and
// detail reads can be revalidated with conditional requests.
//
// Entries are only ever served after the backend answers 304 Not Modified,
// so a cached page is never newer or older than what the backend agrees to.
// Keys are scoped by a token fingerprint; two operators never share entries.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint:    "/v1/coupons",
//		QueryParams: url.Values{"size": []string{"20"}},
//		Scope:       "3f2a9c0d",
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the backend
//	}
//
// # Conditional Requests
//
//	if cache.Revalidatable(entry) {
//		cache.SetValidators(req, entry)
//	}
//
// # Eviction
//
// The console's cache tooling drops every entry below an endpoint:
//
//	removed, err := manager.Evict(ctx, "/v1/coupons")
//
// # Metrics
//
//   - admin_cache_hits_total - Cache hits
//   - admin_cache_misses_total - Cache misses
//   - admin_cache_size_bytes - Bytes written to Redis
//   - admin_cache_not_modified_total - 304 responses served from cache
//   - admin_cache_conditional_requests_total - Requests sent with validators
//   - admin_cache_evictions_total - Entries removed by Evict
//   - admin_cache_errors_total{operation} - Cache operation errors
package cache
