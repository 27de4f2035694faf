package pagination

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
)

type testItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (i testItem) ItemID() string { return strconv.Itoa(i.ID) }

// makeItems returns items with ids from..to inclusive.
func makeItems(from, to int) []testItem {
	items := make([]testItem, 0, to-from+1)
	for id := from; id <= to; id++ {
		items = append(items, testItem{ID: id, Name: fmt.Sprintf("item-%d", id)})
	}
	return items
}

func ids(items []testItem) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

type fetchCall struct {
	filter url.Values
	cursor Cursor
	size   int
}

type fetchResult struct {
	page Page[testItem]
	err  error
}

// scriptedSource replays results in order. When gate is set each fetch
// blocks until a value is sent on it.
type scriptedSource struct {
	mu      sync.Mutex
	results []fetchResult
	calls   []fetchCall
	gate    chan struct{}
	started chan struct{}
}

func newScriptedSource(results ...fetchResult) *scriptedSource {
	return &scriptedSource{results: results}
}

func (s *scriptedSource) FetchPage(ctx context.Context, filter url.Values, cursor Cursor, size int) (Page[testItem], error) {
	s.mu.Lock()
	s.calls = append(s.calls, fetchCall{filter: filter, cursor: cursor, size: size})
	if len(s.results) == 0 {
		s.mu.Unlock()
		return Page[testItem]{}, fmt.Errorf("unexpected fetch for cursor %q", cursor)
	}
	res := s.results[0]
	s.results = s.results[1:]
	gate, started := s.gate, s.started
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Page[testItem]{}, ctx.Err()
		}
	}
	return res.page, res.err
}

func (s *scriptedSource) Calls() []fetchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fetchCall(nil), s.calls...)
}
