package pagination

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/threedollars/admin-console/pkg/client"
)

var (
	// ErrStale is returned when a fetch finished after the list was reset
	// or closed; its result was discarded.
	ErrStale = errors.New("page discarded: list was reset while loading")

	// ErrClosed is returned by operations on a closed list.
	ErrClosed = errors.New("list closed")
)

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is the user-visible outcome of a failed fetch.
type Notice struct {
	Level     NoticeLevel       `json:"level"`
	Class     client.ErrorClass `json:"class,omitempty"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable"`
	At        time.Time         `json:"at"`
}

// Snapshot is a consistent copy of a list for rendering.
type Snapshot[T any] struct {
	Items     []T        `json:"items"`
	HasMore   bool       `json:"hasMore"`
	IsLoading bool       `json:"isLoading"`
	Status    Status     `json:"status"`
	Cursor    Cursor     `json:"cursor,omitempty"`
	Epoch     uint64     `json:"epoch"`
	Filter    url.Values `json:"filter,omitempty"`
	Notice    *Notice    `json:"notice,omitempty"`
}

// ListConfig configures a List.
type ListConfig struct {
	// Name labels logs and metrics, usually the resource name
	Name string

	// PageSize requested from the backend (default 20)
	PageSize int

	// Logger for list events (default: global logger)
	Logger *zerolog.Logger
}

// List owns the state of one mounted list and serializes its fetches.
// It is safe for concurrent use.
type List[T Identifiable] struct {
	mu     sync.Mutex
	source PageSource[T]
	state  *State[T]
	filter url.Values
	size   int
	name   string
	notice *Notice
	cancel context.CancelFunc
	closed bool
	logger zerolog.Logger
}

// NewList creates an empty idle list over source.
func NewList[T Identifiable](source PageSource[T], cfg ListConfig) *List[T] {
	logger := log.With().Str("component", "list").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	if cfg.Name != "" {
		logger = logger.With().Str("list", cfg.Name).Logger()
	}

	return &List[T]{
		source: source,
		state:  NewState[T](),
		filter: url.Values{},
		size:   NormalizeSize(cfg.PageSize),
		name:   cfg.Name,
		logger: logger,
	}
}

// Refresh resets the list for filter and loads the first page. It is used
// on mount and on every filter change. A fetch still running for the
// previous filter is cancelled and its result discarded.
func (l *List[T]) Refresh(ctx context.Context, filter url.Values) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.filter = cloneValues(filter)
	l.notice = nil
	ticket := l.state.Reset()
	fetchCtx := l.dispatch(ctx)
	filterCopy := cloneValues(l.filter)
	l.mu.Unlock()

	l.logger.Info().Uint64("epoch", ticket.Epoch()).Msg("List reset")

	return l.run(fetchCtx, ticket, filterCopy)
}

// LoadMore fetches the next page. It reports false without doing anything
// while a fetch is in flight or when the list is exhausted.
func (l *List[T]) LoadMore(ctx context.Context) (bool, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false, ErrClosed
	}
	ticket, ok := l.state.Begin()
	if !ok {
		status := l.state.Status()
		l.mu.Unlock()
		loadMoreSuppressedTotal.WithLabelValues(l.name, string(status)).Inc()
		l.logger.Debug().Str("status", string(status)).Msg("Load more suppressed")
		return false, nil
	}
	fetchCtx := l.dispatch(ctx)
	filter := cloneValues(l.filter)
	l.mu.Unlock()

	return true, l.run(fetchCtx, ticket, filter)
}

// Remove drops an item after a confirmed delete, without refetching.
func (l *List[T]) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := l.state.RemoveByID(id)
	if removed {
		l.logger.Info().Str("item_id", id).Msg("Item removed from list")
	}
	return removed
}

// Status returns the current state machine position.
func (l *List[T]) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Status()
}

// Snapshot returns a consistent copy of the list.
func (l *List[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot[T]{
		Items:     l.state.Items(),
		HasMore:   l.state.HasMore(),
		IsLoading: l.state.Loading(),
		Status:    l.state.Status(),
		Cursor:    l.state.Cursor(),
		Epoch:     l.state.Epoch(),
		Filter:    cloneValues(l.filter),
	}
	if l.notice != nil {
		n := *l.notice
		snap.Notice = &n
	}
	return snap
}

// Close cancels any fetch in flight. Late results are discarded.
func (l *List[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.state.Reset()
}

// dispatch derives the context of a new fetch. Caller holds l.mu.
func (l *List[T]) dispatch(ctx context.Context) context.Context {
	fetchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	return fetchCtx
}

// run performs the fetch for ticket and applies the outcome.
func (l *List[T]) run(ctx context.Context, ticket Ticket, filter url.Values) error {
	logger := l.logger.With().
		Uint64("epoch", ticket.Epoch()).
		Str("cursor", string(ticket.Cursor())).
		Str("mode", ticket.Mode().String()).
		Logger()

	start := time.Now()
	page, err := l.source.FetchPage(ctx, filter, ticket.Cursor(), l.size)
	pageFetchDuration.WithLabelValues(l.name).Observe(time.Since(start).Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()

	if ticket.Epoch() != l.state.Epoch() || l.closed {
		staleDiscardedTotal.WithLabelValues(l.name).Inc()
		logger.Debug().Msg("Discarding page for a previous epoch")
		return ErrStale
	}

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}

	if err != nil {
		l.state.Fail(ticket)
		l.notice = noticeFor(err)
		class := client.ClassOf(err)
		loadFailuresTotal.WithLabelValues(l.name, string(class)).Inc()

		event := logger.Warn()
		if class == client.ErrorClassProtocol {
			event = logger.Error()
		}
		event.Err(err).Str("error_class", string(class)).Msg("Page fetch failed")
		return err
	}

	before := l.state.Len()
	l.state.ApplyPage(ticket, page, ticket.Mode())
	l.notice = nil

	added := l.state.Len()
	if ticket.Mode() == ModeAppend {
		added -= before
	}
	if dups := len(page.Contents) - added; dups > 0 {
		duplicatesDroppedTotal.WithLabelValues(l.name).Add(float64(dups))
		logger.Debug().Int("duplicates", dups).Msg("Dropped duplicate items")
	}
	pagesAppliedTotal.WithLabelValues(l.name, ticket.Mode().String()).Inc()

	logger.Info().
		Int("received", len(page.Contents)).
		Int("total", l.state.Len()).
		Bool("has_more", l.state.HasMore()).
		Msg("Page applied")

	return nil
}

// noticeFor converts a fetch error into a user-facing notice.
func noticeFor(err error) *Notice {
	n := &Notice{
		Level:     NoticeWarning,
		Class:     client.ClassOf(err),
		Retryable: client.IsRetryable(err),
		At:        time.Now(),
	}

	switch n.Class {
	case client.ErrorClassNetwork:
		n.Message = "Could not reach the server. Scroll again or press retry."
	case client.ErrorClassServer:
		n.Message = "The server failed to load more items. Try again shortly."
	case client.ErrorClassProtocol:
		n.Level = NoticeError
		n.Message = "The server sent an unexpected response."
	case client.ErrorClassUnauthorized:
		n.Level = NoticeError
		n.Message = "Your session has expired. Sign in again."
	default:
		n.Level = NoticeError
		n.Message = err.Error()
	}
	return n
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}
