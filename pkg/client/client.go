// Package client provides the REST client for the admin backend: bearer
// authentication, envelope decoding, error classification and conditional
// GET caching.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/threedollars/admin-console/pkg/cache"
)

// Prometheus metrics for backend calls.
var (
	backendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_backend_requests_total",
		Help: "Total backend requests by endpoint and status",
	}, []string{"method", "endpoint", "status"})

	backendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admin_backend_request_duration_seconds",
		Help:    "Backend request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "endpoint"})

	backendErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_backend_errors_total",
		Help: "Total backend errors by class",
	}, []string{"class"})
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 8 << 20

// Client talks to the admin REST backend.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	tokens     TokenSource
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the backend, e.g. "https://admin-api.example.com"
	BaseURL string

	// Tokens supplies the bearer token for every request
	Tokens TokenSource

	// Cache enables conditional GET caching when non-nil
	Cache *cache.Manager

	// UserAgent header sent with every request
	UserAgent string

	// Timeout of the underlying http.Client; the only timeout applied
	Timeout time.Duration
}

// DefaultConfig returns a configuration with safe defaults.
func DefaultConfig(baseURL string, tokens TokenSource) Config {
	return Config{
		BaseURL:   baseURL,
		Tokens:    tokens,
		UserAgent: "admin-console/1.0",
		Timeout:   30 * time.Second,
	}
}

// New creates a new backend client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", base.Scheme)
	}

	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		tokens:  cfg.Tokens,
		cache:   cfg.Cache,
		config:  cfg,
		logger:  log.With().Str("component", "backend-client").Logger(),
	}, nil
}

// WithTokens returns a client sharing transport and cache but
// authenticating with tokens.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

// Do sends req with authentication, conditional caching, metrics and error
// classification. Transport failures come back as network-class APIErrors;
// HTTP status codes are left to the caller.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointLabel(req.URL.Path)

	startTime := time.Now()
	defer func() {
		backendRequestDuration.WithLabelValues(req.Method, endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Authenticate
	token, err := c.tokens.Token(ctx)
	if err != nil {
		backendErrorsTotal.WithLabelValues(string(ErrorClassUnauthorized)).Inc()
		return nil, &APIError{
			Class:   ErrorClassUnauthorized,
			Message: "no bearer token for request",
			Err:     err,
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	// Step 2: Check Cache
	var (
		cacheKey    cache.CacheKey
		cachedEntry *cache.CacheEntry
	)
	cacheable := c.cache != nil && req.Method == http.MethodGet
	if cacheable {
		cacheKey = cache.CacheKey{
			Endpoint:    req.URL.Path,
			QueryParams: req.URL.Query(),
			Scope:       tokenScope(token),
		}
		cachedEntry, err = c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		if cache.Revalidatable(cachedEntry) {
			cache.SetValidators(req, cachedEntry)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("etag", cachedEntry.ETag).
				Msg("Making conditional request")
		}
	}

	// Step 3: Headers
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	// Step 4: Execute
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing backend request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		backendErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		backendRequestsTotal.WithLabelValues(req.Method, endpoint, "network_error").Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Backend request failed")
		return nil, &APIError{
			Class:   ErrorClassNetwork,
			Message: fmt.Sprintf("%s %s", req.Method, req.URL.Path),
			Err:     err,
		}
	}
	backendRequestsTotal.WithLabelValues(req.Method, endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	// Step 5: 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}

		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 6: Update Cache on success
	if cacheable && resp.StatusCode == http.StatusOK {
		c.storeResponse(ctx, cacheKey, resp)
	}

	return resp, nil
}

// storeResponse caches resp when the backend sent a validator for it.
func (c *Client) storeResponse(ctx context.Context, key cache.CacheKey, resp *http.Response) {
	entry, err := cache.NewEntry(resp, time.Now())
	if errors.Is(err, cache.ErrNotStorable) || errors.Is(err, cache.ErrEntryTooLarge) {
		c.logger.Debug().Err(err).Str("endpoint", key.Endpoint).Msg("Response not cached")
		return
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		return
	}
	if !cache.Revalidatable(entry) || entry.TTL() <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache response")
		return
	}
	c.logger.Debug().
		Str("endpoint", key.Endpoint).
		Dur("ttl", entry.TTL()).
		Msg("Cached response")
}

// GetJSON performs a GET and decodes the unwrapped payload into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, http.MethodGet, path, query, nil, out)
}

// SendJSON performs a mutation with a JSON body and decodes the payload
// into out (which may be nil).
func (c *Client) SendJSON(ctx context.Context, method, path string, body, out any) error {
	return c.call(ctx, method, path, nil, body, out)
}

// Delete performs a DELETE on path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		backendErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return &APIError{
			Class:      ErrorClassNetwork,
			StatusCode: resp.StatusCode,
			Message:    "read response body",
			Err:        err,
		}
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			Class:      classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp.Status),
		}
		backendErrorsTotal.WithLabelValues(string(apiErr.Class)).Inc()
		c.logger.Warn().
			Str("endpoint", endpointLabel(path)).
			Int("status", resp.StatusCode).
			Str("error_class", string(apiErr.Class)).
			Msg("Backend request error")
		return apiErr
	}

	payload, err := UnwrapEnvelope(raw)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.StatusCode = resp.StatusCode
			backendErrorsTotal.WithLabelValues(string(apiErr.Class)).Inc()
		}
		return err
	}

	if out == nil {
		return nil
	}
	if len(payload) == 0 || string(payload) == "null" {
		backendErrorsTotal.WithLabelValues(string(ErrorClassProtocol)).Inc()
		return &APIError{
			Class:      ErrorClassProtocol,
			StatusCode: resp.StatusCode,
			Message:    "response has no payload",
		}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		backendErrorsTotal.WithLabelValues(string(ErrorClassProtocol)).Inc()
		return &APIError{
			Class:      ErrorClassProtocol,
			StatusCode: resp.StatusCode,
			Message:    "decode response payload",
			Err:        err,
		}
	}
	return nil
}

// resolve joins path and query onto the base URL.
func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// classifyStatus maps an HTTP error status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorClassUnauthorized
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassApplication
	}
}

// endpointLabel collapses numeric path segments so ids do not explode
// metric cardinality: /v1/coupons/42 -> /v1/coupons/:id
func endpointLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient replaces the underlying http.Client. Config.Timeout is not
// applied to it.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Cache returns the response cache, nil when caching is disabled.
func (c *Client) Cache() *cache.Manager {
	return c.cache
}
