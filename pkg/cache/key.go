package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every response cache key in Redis.
const KeyPrefix = "admin:resp"

// CacheKey identifies one cached backend response.
type CacheKey struct {
	// Endpoint is the backend path (e.g. "/v1/coupons")
	Endpoint string

	// QueryParams are the query parameters, cursor and size included
	QueryParams url.Values

	// Scope is the token fingerprint of the caller ("" for anonymous reads)
	Scope string
}

// String generates a deterministic cache key string.
// Format: admin:resp:endpoint:query1=val1:scope=abc
//
// Example:
//
//	admin:resp:v1/coupons:cursor=abc:size=20:scope=3f2a9c0d
func (k CacheKey) String() string {
	parts := []string{endpointKey(k.Endpoint)}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			values := append([]string(nil), k.QueryParams[key]...)
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(values, ",")))
		}
	}

	if k.Scope != "" {
		parts = append(parts, "scope="+k.Scope)
	}

	return strings.Join(parts, ":")
}

// endpointKey is the key of an endpoint without query or scope.
func endpointKey(endpoint string) string {
	endpoint = strings.Trim(endpoint, "/")
	if endpoint == "" {
		return KeyPrefix
	}
	return KeyPrefix + ":" + endpoint
}

// evictPatterns returns the SCAN patterns covering an endpoint's entries.
// An empty endpoint covers the whole response cache.
func evictPatterns(endpoint string) []string {
	base := endpointKey(endpoint)
	if strings.Trim(endpoint, "/") == "" {
		return []string{base + ":*"}
	}
	return []string{base, base + ":*"}
}
