package pagination

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/threedollars/admin-console/pkg/client"
)

// CollectorConfig holds collector configuration
type CollectorConfig struct {
	// PageSize requested per page (default: MaxPageSize)
	PageSize int
	// MaxPages stops the walk early; 0 means no limit
	MaxPages int
	// Timeout per page fetch
	Timeout time.Duration
	// ProgressEvery logs progress every N pages
	ProgressEvery int
}

// DefaultCollectorConfig returns the configuration used by exports
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		PageSize:      MaxPageSize,
		Timeout:       15 * time.Second,
		ProgressEvery: 50,
	}
}

// CollectStats summarizes a walk.
type CollectStats struct {
	Pages      int
	Items      int
	Duplicates int
	Truncated  bool
	Duration   time.Duration
}

// Collector walks every page of a list, one request at a time. Cursor
// pagination cannot be parallelized: each cursor comes from the page
// before it.
type Collector[T Identifiable] struct {
	source PageSource[T]
	name   string
	config CollectorConfig
	logger zerolog.Logger
}

// NewCollector creates a collector over source.
func NewCollector[T Identifiable](source PageSource[T], name string, config CollectorConfig) *Collector[T] {
	if config.PageSize <= 0 {
		config.PageSize = MaxPageSize
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = 50
	}

	return &Collector[T]{
		source: source,
		name:   name,
		config: config,
		logger: log.With().Str("component", "collector").Str("list", name).Logger(),
	}
}

// Collect fetches pages until hasMore is false and hands each page's new
// items to fn. Items seen on an earlier page are skipped. On failure the
// stats describe what was delivered before it.
func (c *Collector[T]) Collect(ctx context.Context, filter url.Values, fn func([]T) error) (CollectStats, error) {
	start := time.Now()
	var stats CollectStats
	seen := make(map[string]struct{})
	var cursor Cursor

	c.logger.Info().Int("page_size", c.config.PageSize).Msg("Starting collection")

	for {
		if c.config.MaxPages > 0 && stats.Pages >= c.config.MaxPages {
			stats.Truncated = true
			break
		}
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("collection cancelled (partial data: %d pages): %w", stats.Pages, err)
		}

		pageCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		page, err := c.source.FetchPage(pageCtx, filter, cursor, c.config.PageSize)
		cancel()
		if err != nil {
			stats.Duration = time.Since(start)
			if stats.Pages == 0 {
				return stats, fmt.Errorf("failed to fetch first page: %w", err)
			}
			c.logger.Warn().
				Err(err).
				Int("fetched_pages", stats.Pages).
				Msg("Page fetch failed - returning partial results")
			return stats, fmt.Errorf("page fetch failed (partial data: %d pages): %w", stats.Pages, err)
		}
		stats.Pages++
		collectedPagesTotal.Inc()

		fresh := make([]T, 0, len(page.Contents))
		for _, item := range page.Contents {
			id := item.ItemID()
			if _, dup := seen[id]; dup {
				stats.Duplicates++
				continue
			}
			seen[id] = struct{}{}
			fresh = append(fresh, item)
		}
		if len(fresh) > 0 {
			if err := fn(fresh); err != nil {
				stats.Duration = time.Since(start)
				return stats, fmt.Errorf("handle page %d: %w", stats.Pages, err)
			}
			stats.Items += len(fresh)
		}

		if stats.Pages%c.config.ProgressEvery == 0 {
			c.logger.Info().
				Int("pages", stats.Pages).
				Int("items", stats.Items).
				Msg("Collection progress")
		}

		if !page.Cursor.HasMore {
			break
		}
		next := page.Next()
		if next == cursor {
			stats.Duration = time.Since(start)
			return stats, client.NewProtocolError(fmt.Sprintf("cursor %q did not advance", cursor), nil)
		}
		cursor = next
	}

	stats.Duration = time.Since(start)
	c.logger.Info().
		Int("pages", stats.Pages).
		Int("items", stats.Items).
		Int("duplicates", stats.Duplicates).
		Bool("truncated", stats.Truncated).
		Dur("duration", stats.Duration).
		Msg("Collection complete")

	return stats, nil
}
