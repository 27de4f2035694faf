package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/threedollars/admin-console/pkg/pagination"
)

// Config aggregates console configuration loaded from environment variables.
type Config struct {
	Env             string
	HTTPAddr        string
	BackendURL      string
	BackendTimeout  time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheEnabled    bool
	LogLevel        string
	LogPretty       bool
	PageSize        int
	Debounce        time.Duration
	ThresholdKind   string
	ThresholdValue  float64
	SessionTTL      time.Duration
	ViewIdleTimeout time.Duration
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:           getEnv("APP_ENV", "dev"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		BackendURL:    os.Getenv("ADMIN_API_URL"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		ThresholdKind: strings.ToLower(getEnv("SCROLL_THRESHOLD_KIND", "pixel")),
	}

	origins := getEnv("CORS_ORIGINS", "http://localhost:3000")
	for _, raw := range strings.Split(origins, ",") {
		if o := strings.TrimSpace(raw); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	var err error
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.PageSize, err = parseIntEnv("PAGE_SIZE", pagination.DefaultPageSize); err != nil {
		return Config{}, err
	}
	if cfg.ThresholdValue, err = parseFloatEnv("SCROLL_THRESHOLD_VALUE", 0); err != nil {
		return Config{}, err
	}
	if cfg.CacheEnabled, err = parseBoolEnv("CACHE_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.LogPretty, err = parseBoolEnv("LOG_PRETTY", cfg.Env == "dev"); err != nil {
		return Config{}, err
	}
	if cfg.BackendTimeout, err = parseDurationEnv("ADMIN_API_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Debounce, err = parseDurationEnv("SCROLL_DEBOUNCE", pagination.DefaultDebounce); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ViewIdleTimeout, err = parseDurationEnv("VIEW_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("ADMIN_API_URL is required")
	}
	if u, err := url.Parse(cfg.BackendURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Config{}, fmt.Errorf("ADMIN_API_URL must be an http(s) url (got %q)", cfg.BackendURL)
	}
	if cfg.PageSize <= 0 || cfg.PageSize > pagination.MaxPageSize {
		return Config{}, fmt.Errorf("PAGE_SIZE must be within 1..%d (got %d)", pagination.MaxPageSize, cfg.PageSize)
	}
	if cfg.Debounce < 0 {
		return Config{}, fmt.Errorf("SCROLL_DEBOUNCE must not be negative")
	}
	if _, err := cfg.Threshold(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Threshold builds the scroll threshold policy.
func (c Config) Threshold() (pagination.Threshold, error) {
	t, err := pagination.ParseThreshold(c.ThresholdKind, c.ThresholdValue)
	if err != nil {
		return nil, fmt.Errorf("invalid SCROLL_THRESHOLD_*: %w", err)
	}
	return t, nil
}

// Controller returns the scroll controller configuration.
func (c Config) Controller() (pagination.ControllerConfig, error) {
	threshold, err := c.Threshold()
	if err != nil {
		return pagination.ControllerConfig{}, err
	}
	debounce := c.Debounce
	if debounce == 0 {
		// SCROLL_DEBOUNCE=0 turns the window off
		debounce = pagination.NoDebounce
	}
	return pagination.ControllerConfig{Threshold: threshold, Debounce: debounce}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s number: %w", key, err)
	}
	return f, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean %q", key, raw)
	}
}
