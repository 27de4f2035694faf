package console

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/threedollars/admin-console/internal/testutil"
	"github.com/threedollars/admin-console/pkg/client"
	"github.com/threedollars/admin-console/pkg/pagination"
	"github.com/threedollars/admin-console/pkg/session"
)

// memorySessions is an in-memory Sessions implementation.
type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]*session.Session)}
}

func (m *memorySessions) Create(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, session.ErrInvalidToken
	}
	sess := &session.Session{
		ID:        uuid.NewString(),
		Token:     token,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess, nil
}

func (m *memorySessions) Get(ctx context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

func (m *memorySessions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *memorySessions) TokenSource(id string) client.TokenSource {
	return client.TokenFunc(func(ctx context.Context) (string, error) {
		sess, err := m.Get(ctx, id)
		if err != nil {
			return "", client.ErrNoToken
		}
		return sess.Token, nil
	})
}

type fakeEvictor struct {
	endpoints []string
	count     int
	err       error
}

func (f *fakeEvictor) Evict(ctx context.Context, endpoint string) (int, error) {
	f.endpoints = append(f.endpoints, endpoint)
	return f.count, f.err
}

type testEnv struct {
	server   *Server
	backend  *testutil.MockBackend
	sessions *memorySessions
}

func newTestEnv(t *testing.T, evictor Evictor) *testEnv {
	t.Helper()

	backend := testutil.NewMockBackend()
	t.Cleanup(backend.Close)

	c, err := client.New(client.DefaultConfig(backend.URL(), client.StaticToken("unused")))
	require.NoError(t, err)

	ctrl := pagination.DefaultControllerConfig()
	ctrl.Debounce = pagination.NoDebounce

	sessions := newMemorySessions()
	srv := New(Config{
		Env:             "test",
		CORSOrigins:     []string{"http://localhost:3000"},
		PageSize:        20,
		Controller:      ctrl,
		ViewIdleTimeout: time.Hour,
	}, Deps{
		Backend:  c,
		Sessions: sessions,
		Cache:    evictor,
	})
	t.Cleanup(srv.Views().Close)

	return &testEnv{server: srv, backend: backend, sessions: sessions}
}

// do sends a JSON request and decodes the JSON response into out.
func (e *testEnv) do(t *testing.T, method, path, sessionID string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), "body: %s", rec.Body.String())
	}
	return rec.Code
}

func (e *testEnv) signIn(t *testing.T, token string) string {
	t.Helper()
	var resp session.View
	code := e.do(t, http.MethodPost, "/api/sessions", "", map[string]string{"token": token}, &resp)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

// snapshotBody is the decoded form of a list snapshot.
type snapshotBody struct {
	Items     []map[string]any    `json:"items"`
	HasMore   bool                `json:"hasMore"`
	IsLoading bool                `json:"isLoading"`
	Status    string              `json:"status"`
	Cursor    string              `json:"cursor"`
	Notice    *pagination.Notice  `json:"notice"`
	Filter    map[string][]string `json:"filter"`
}

type viewBody struct {
	View struct {
		ID string `json:"id"`
	} `json:"view"`
	Snapshot snapshotBody `json:"snapshot"`
}

type scrollBody struct {
	Decision string       `json:"decision"`
	Fired    bool         `json:"fired"`
	Removed  bool         `json:"removed"`
	Snapshot snapshotBody `json:"snapshot"`
}

func (e *testEnv) mount(t *testing.T, sessionID, resource string, filter map[string]any) viewBody {
	t.Helper()
	var resp viewBody
	code := e.do(t, http.MethodPost, "/api/views", sessionID, map[string]any{
		"resource": resource,
		"filter":   filter,
	}, &resp)
	require.Equal(t, http.StatusCreated, code)
	return resp
}

// nearBottom is a viewport 50px above the end of the content.
var nearBottom = pagination.Viewport{ScrollTop: 1350, ScrollHeight: 2000, ClientHeight: 600}

var farFromBottom = pagination.Viewport{ScrollTop: 100, ScrollHeight: 2000, ClientHeight: 600}
