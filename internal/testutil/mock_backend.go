// Package testutil provides a mock admin backend for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior of one canned response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// mockList is a cursor-paginated collection served by MockBackend.
type mockList struct {
	idField  string
	items    []map[string]any
	envelope bool
}

// MockBackend is a configurable admin backend for testing. Lists registered
// with SetList are paged with cursors and support DELETE <path>/<id>.
type MockBackend struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	lists    map[string]*mockList
	failures map[string][]MockResponse

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
	requests          []*http.Request
	deleted           []string
}

// NewMockBackend creates a new mock backend server.
func NewMockBackend() *MockBackend {
	mock := &MockBackend{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		lists:    make(map[string]*mockList),
		failures: make(map[string][]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

func (m *MockBackend) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.RequestCount++
	m.LastRequestHeader = r.Header.Clone()
	m.requests = append(m.requests, r.Clone(r.Context()))

	if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
		m.ConditionalCount++
	}

	// injected failures win over everything else
	if queue := m.failures[r.URL.Path]; len(queue) > 0 {
		resp := queue[0]
		m.failures[r.URL.Path] = queue[1:]
		m.mu.Unlock()
		writeResponse(w, resp)
		return
	}

	handler, hasHandler := m.handlers[r.URL.Path]
	m.mu.Unlock()

	if hasHandler {
		handler(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		m.serveList(w, r)
	case http.MethodDelete:
		m.serveDelete(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "message": "method not allowed"})
	}
}

func (m *MockBackend) serveList(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	list, ok := m.lists[r.URL.Path]
	var items []map[string]any
	if ok {
		items = append(items, list.items...)
	}
	m.mu.RUnlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "not found"})
		return
	}

	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = 20
	}

	start := 0
	if c := r.URL.Query().Get("cursor"); c != "" {
		start, err = decodeCursor(c)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "invalid cursor"})
			return
		}
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}

	var next any
	hasMore := end < len(items)
	if hasMore {
		next = encodeCursor(end)
	}
	page := map[string]any{
		"contents": items[start:end],
		"cursor":   map[string]any{"hasMore": hasMore, "nextCursor": next},
	}

	if list.envelope {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": page})
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (m *MockBackend) serveDelete(w http.ResponseWriter, r *http.Request) {
	idx := strings.LastIndex(r.URL.Path, "/")
	listPath, id := r.URL.Path[:idx], r.URL.Path[idx+1:]

	m.mu.Lock()
	defer m.mu.Unlock()

	list, ok := m.lists[listPath]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "not found"})
		return
	}
	for i, item := range list.items {
		if fmt.Sprint(item[list.idField]) == id {
			list.items = append(list.items[:i:i], list.items[i+1:]...)
			m.deleted = append(m.deleted, r.URL.Path)
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}
	// the real backend answers business rejections with 200 and ok=false
	writeJSON(w, http.StatusOK, map[string]any{"ok": false, "message": "이미 삭제된 항목입니다"})
}

func encodeCursor(offset int) string {
	return "c" + strconv.Itoa(offset)
}

func decodeCursor(c string) (int, error) {
	if !strings.HasPrefix(c, "c") {
		return 0, fmt.Errorf("bad cursor %q", c)
	}
	return strconv.Atoi(c[1:])
}

// URL returns the mock server URL.
func (m *MockBackend) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockBackend) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.requests = nil
	m.deleted = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockBackend) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockBackend) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetList serves items at path as a cursor-paginated list. When envelope is
// true pages are wrapped in {"ok":true,"data":...}.
func (m *MockBackend) SetList(path, idField string, items []map[string]any, envelope bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[path] = &mockList{
		idField:  idField,
		items:    append([]map[string]any(nil), items...),
		envelope: envelope,
	}
}

// FailNext makes the next request to path answer resp instead.
func (m *MockBackend) FailNext(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = append(m.failures[path], resp)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockBackend) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockBackend) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// Requests returns the requests received for path, oldest first.
func (m *MockBackend) Requests(path string) []*http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*http.Request
	for _, r := range m.requests {
		if r.URL.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Deleted returns the item paths deleted so far.
func (m *MockBackend) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}

// Items builds n list items with sequential numeric ids starting at from.
func Items(idField string, from, n int) []map[string]any {
	items := make([]map[string]any, 0, n)
	for id := from; id < from+n; id++ {
		items = append(items, map[string]any{
			idField: id,
			"name":  fmt.Sprintf("item-%d", id),
		})
	}
	return items
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// NewHealthyResponse creates a standard 200 OK response with a validator.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"ETag":         `"test-etag-123"`,
			"Expires":      time.Now().Add(5 * time.Minute).Format(http.TimeFormat),
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotModifiedResponse creates a 304 Not Modified response.
func NewNotModifiedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotModified,
		Headers: map[string]string{
			"Expires": time.Now().Add(5 * time.Minute).Format(http.TimeFormat),
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"ok": false, "message": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewUnauthorizedResponse creates a 401 Unauthorized response.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"ok": false, "message": "인증이 만료되었습니다"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRejectedResponse creates a 200 response carrying {"ok": false}.
func NewRejectedResponse(message string) MockResponse {
	body, _ := json.Marshal(map[string]any{"ok": false, "message": message})
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewConditionalHandler creates a handler that responds with 304 for conditional requests.
func NewConditionalHandler(etag string, data string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Header.Get("If-None-Match") == etag {
			w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	}
}
