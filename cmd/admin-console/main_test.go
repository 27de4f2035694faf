package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/threedollars/admin-console/internal/config"
)

func testConfig(backendURL string) config.Config {
	return config.Config{
		Env:             "test",
		HTTPAddr:        ":0",
		BackendURL:      backendURL,
		BackendTimeout:  5 * time.Second,
		RedisAddr:       "127.0.0.1:1",
		CacheEnabled:    true,
		PageSize:        20,
		Debounce:        300 * time.Millisecond,
		ThresholdKind:   "pixel",
		SessionTTL:      time.Hour,
		ViewIdleTimeout: time.Minute,
		ShutdownTimeout: time.Second,
	}
}

func TestBuildServer(t *testing.T) {
	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer redisClient.Close()

	srv, err := buildServer(testConfig("http://backend.invalid"), redisClient)
	if err != nil {
		t.Fatalf("buildServer failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if srv.HTTPServer().Addr != ":0" {
		t.Errorf("Addr = %q, want :0", srv.HTTPServer().Addr)
	}
}

func TestBuildServer_InvalidThreshold(t *testing.T) {
	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer redisClient.Close()

	cfg := testConfig("http://backend.invalid")
	cfg.ThresholdKind = "percent"

	if _, err := buildServer(cfg, redisClient); err == nil {
		t.Fatal("expected error for unknown threshold kind")
	}
}

func TestBuildServer_InvalidBackendURL(t *testing.T) {
	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer redisClient.Close()

	if _, err := buildServer(testConfig("ftp://backend"), redisClient); err == nil {
		t.Fatal("expected error for non-http backend url")
	}
}

func TestReadyEndpoint_RedisDown(t *testing.T) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer redisClient.Close()

	srv, err := buildServer(testConfig("http://backend.invalid"), redisClient)
	if err != nil {
		t.Fatalf("buildServer failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer redisClient.Close()

	srv, err := buildServer(testConfig("http://backend.invalid"), redisClient)
	if err != nil {
		t.Fatalf("buildServer failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	if !strings.Contains(bodyStr, "admin_console_views_mounted") {
		t.Error("Expected metrics output to contain admin_console_views_mounted")
	}
}
