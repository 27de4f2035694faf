// Package logging configures structured zerolog output for the admin console.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service is attached to every line as "service" when non-empty.
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// ForView derives a logger scoped to one mounted list view.
func ForView(base zerolog.Logger, viewID, resource string) zerolog.Logger {
	return base.With().Str("view_id", viewID).Str("resource", resource).Logger()
}

// Log Level Guidelines:
//
// Debug: request flow and list internals
//   - Conditional requests and cache hits
//   - Scroll decisions that did not trigger a load
//   - Stale pages discarded after a filter change
//
// Info: normal operation
//   - Views mounted/unmounted, filters changed
//   - Pages applied (count, has_more)
//   - Sessions created, cache evictions
//   - Server startup/shutdown
//
// Warn: failures the operator can recover from
//   - Page fetch failures (network, server)
//   - Rejected mutations (application errors)
//   - Cache errors (fallback to direct request)
//
// Error: conditions requiring attention
//   - Protocol errors (malformed backend responses)
//   - Session store unavailable
//   - Configuration errors
//
// Context Fields:
//   - endpoint: backend path
//   - status: HTTP status code
//   - error_class: network, server, protocol, application, unauthorized
//   - resource: admin resource name (coupons, polls, ...)
//   - view_id: console view identifier
//   - epoch: list generation a fetch belongs to
//   - cursor: opaque cursor sent to the backend
