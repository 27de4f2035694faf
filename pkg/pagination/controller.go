package pagination

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultDebounce coalesces bursts of scroll events into one trigger.
	DefaultDebounce = 300 * time.Millisecond

	// NoDebounce disables the debounce window.
	NoDebounce time.Duration = -1
)

// Viewport is the scroll position of the container holding a list.
// SentinelRatio is the visible fraction of the end-of-list sentinel,
// reported by clients that observe one instead of scroll offsets.
type Viewport struct {
	ScrollTop     float64 `json:"scrollTop"`
	ScrollHeight  float64 `json:"scrollHeight"`
	ClientHeight  float64 `json:"clientHeight"`
	SentinelRatio float64 `json:"sentinelRatio,omitempty"`
}

// Remaining returns the unviewed distance below the visible area.
func (v Viewport) Remaining() float64 {
	r := v.ScrollHeight - v.ScrollTop - v.ClientHeight
	if r < 0 {
		return 0
	}
	return r
}

// Fraction returns how much of the content has been scrolled into view,
// between 0 and 1. Content that fits the container counts as fully viewed.
func (v Viewport) Fraction() float64 {
	if v.ScrollHeight <= 0 {
		return 1
	}
	f := (v.ScrollTop + v.ClientHeight) / v.ScrollHeight
	if f > 1 {
		return 1
	}
	return f
}

// Threshold decides whether a viewport is near the end of the list.
// Implementations must be monotonic: scrolling further down never turns
// a near viewport into a far one.
type Threshold interface {
	Near(v Viewport) bool
	String() string
}

// PixelThreshold is near when at most N pixels remain below the fold.
type PixelThreshold float64

// Near reports whether at most p pixels remain below the fold.
func (p PixelThreshold) Near(v Viewport) bool {
	return v.Remaining() <= float64(p)
}

func (p PixelThreshold) String() string {
	return fmt.Sprintf("pixel(%g)", float64(p))
}

// FractionThreshold is near once the scrolled fraction reaches F.
type FractionThreshold float64

// Near reports whether the scrolled fraction reached f.
func (f FractionThreshold) Near(v Viewport) bool {
	return v.Fraction() >= float64(f)
}

func (f FractionThreshold) String() string {
	return fmt.Sprintf("fraction(%g)", float64(f))
}

// SentinelThreshold is near once the sentinel is visible by at least R.
type SentinelThreshold float64

// Near reports whether the sentinel is visible by at least s.
func (s SentinelThreshold) Near(v Viewport) bool {
	return v.SentinelRatio > 0 && v.SentinelRatio >= float64(s)
}

func (s SentinelThreshold) String() string {
	return fmt.Sprintf("sentinel(%g)", float64(s))
}

// Threshold defaults.
const (
	DefaultPixelThreshold    = 100
	DefaultFractionThreshold = 0.8
	DefaultSentinelThreshold = 0.1
)

// ParseThreshold builds a threshold from its kind ("pixel", "fraction" or
// "sentinel"). A zero value selects the kind's default.
func ParseThreshold(kind string, value float64) (Threshold, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "pixel", "px":
		if value == 0 {
			value = DefaultPixelThreshold
		}
		if value < 0 {
			return nil, fmt.Errorf("pixel threshold must not be negative (got %g)", value)
		}
		return PixelThreshold(value), nil
	case "fraction":
		if value == 0 {
			value = DefaultFractionThreshold
		}
		if value < 0 || value > 1 {
			return nil, fmt.Errorf("fraction threshold must be within (0, 1] (got %g)", value)
		}
		return FractionThreshold(value), nil
	case "sentinel":
		if value == 0 {
			value = DefaultSentinelThreshold
		}
		if value < 0 || value > 1 {
			return nil, fmt.Errorf("sentinel threshold must be within (0, 1] (got %g)", value)
		}
		return SentinelThreshold(value), nil
	default:
		return nil, fmt.Errorf("unknown threshold kind %q", kind)
	}
}

// Loader is what the controller drives; *List satisfies it.
type Loader interface {
	Status() Status
	LoadMore(ctx context.Context) (bool, error)
}

// Decision is the outcome of one observed viewport.
type Decision string

const (
	DecisionFired        Decision = "fired"
	DecisionFar          Decision = "far"
	DecisionSameApproach Decision = "same_approach"
	DecisionDebounced    Decision = "debounced"
	DecisionLoading      Decision = "loading"
	DecisionExhausted    Decision = "exhausted"
)

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	// Threshold decides when the viewport is near the end (default 100px)
	Threshold Threshold

	// Debounce is the minimum spacing between two fires. Zero selects
	// DefaultDebounce; NoDebounce (any negative value) disables it.
	Debounce time.Duration

	// Now is the clock (default time.Now)
	Now func() time.Time

	Logger *zerolog.Logger
}

// DefaultControllerConfig triggers 100px from the bottom with a 300ms
// debounce window.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Threshold: PixelThreshold(DefaultPixelThreshold),
		Debounce:  DefaultDebounce,
	}
}

// Controller turns viewport observations into load-more calls.
//
// It fires at most once per approach to the bottom: after firing it stays
// disarmed until the viewport leaves the threshold zone, the content height
// changes, or the load did not succeed. A fire is also suppressed within
// the debounce window of the previous one, while a fetch is in flight, and
// once the list is exhausted.
type Controller struct {
	mu         sync.Mutex
	loader     Loader
	threshold  Threshold
	debounce   time.Duration
	now        func() time.Time
	limiter    *rate.Limiter
	armed      bool
	lastHeight float64
	logger     zerolog.Logger
}

// NewController creates an armed controller for loader.
func NewController(loader Loader, cfg ControllerConfig) *Controller {
	if cfg.Threshold == nil {
		cfg.Threshold = PixelThreshold(DefaultPixelThreshold)
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := log.With().Str("component", "scroll").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Controller{
		loader:    loader,
		threshold: cfg.Threshold,
		debounce:  cfg.Debounce,
		now:       cfg.Now,
		limiter:   newDebounceLimiter(cfg.Debounce),
		armed:     true,
		logger:    logger,
	}
}

// newDebounceLimiter allows one fire per debounce window. A negative
// window never limits.
func newDebounceLimiter(debounce time.Duration) *rate.Limiter {
	if debounce < 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(debounce), 1)
}

// Observe handles one scroll event. When the decision is DecisionFired the
// load has already run; its error, if any, is returned.
func (c *Controller) Observe(ctx context.Context, v Viewport) (Decision, error) {
	c.mu.Lock()
	decision := c.decide(v)
	c.mu.Unlock()

	scrollDecisionsTotal.WithLabelValues(string(decision)).Inc()
	if decision != DecisionFired {
		c.logger.Debug().
			Str("decision", string(decision)).
			Float64("remaining", v.Remaining()).
			Msg("Scroll observed")
		return decision, nil
	}

	c.logger.Debug().
		Float64("remaining", v.Remaining()).
		Str("threshold", c.threshold.String()).
		Msg("Threshold crossed, loading more")

	fired, err := c.loader.LoadMore(ctx)
	if err != nil || !fired {
		c.Rearm()
	}
	return decision, err
}

// decide advances the arm state for v. Caller holds c.mu.
func (c *Controller) decide(v Viewport) Decision {
	if !c.threshold.Near(v) {
		c.armed = true
		c.lastHeight = v.ScrollHeight
		return DecisionFar
	}
	if v.ScrollHeight != c.lastHeight {
		// new content below means a new approach
		c.armed = true
		c.lastHeight = v.ScrollHeight
	}

	switch c.loader.Status() {
	case StatusLoading:
		return DecisionLoading
	case StatusExhausted:
		return DecisionExhausted
	case StatusFailed:
		c.armed = true
	}

	if !c.armed {
		return DecisionSameApproach
	}
	if !c.limiter.AllowN(c.now(), 1) {
		return DecisionDebounced
	}

	c.armed = false
	return DecisionFired
}

// Retry loads the next page regardless of arm state and debounce. It backs
// the explicit "load more" control shown after a failure. The retry still
// opens a debounce window for the scroll events that follow it.
func (c *Controller) Retry(ctx context.Context) (bool, error) {
	c.mu.Lock()
	c.limiter.AllowN(c.now(), 1)
	c.armed = false
	c.mu.Unlock()

	fired, err := c.loader.LoadMore(ctx)
	if err != nil || !fired {
		c.Rearm()
	}
	return fired, err
}

// Rearm allows the next near observation to fire.
func (c *Controller) Rearm() {
	c.mu.Lock()
	c.armed = true
	c.mu.Unlock()
}

// Reset forgets all scroll history, used when the list is refreshed.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.armed = true
	c.limiter = newDebounceLimiter(c.debounce)
	c.lastHeight = 0
	c.mu.Unlock()
}
