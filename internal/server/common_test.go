package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mugiliam/unitycatalogsrv/internal/config"
	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testServer struct {
	*CatalogServer
	clock *testClock
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Sharing.SigningKey = "test-key"
	for _, f := range mutate {
		f(&cfg)
	}
	logger := zerolog.Nop()
	ctx := logger.WithContext(context.Background())
	store, err := db.OpenInMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(ctx) })

	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s, err := CreateNewServer(cfg, store, metrics.New(), Options{Logger: &logger, Clock: clock.Now})
	require.NoError(t, err, "create new server")
	s.MountHandlers()
	return &testServer{CatalogServer: s, clock: clock}
}

func (s *testServer) executeTestRequest(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

// do sends a request with an optional JSON body. Extra arguments are header
// name/value pairs.
func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	if body != nil {
		setRequestBodyAndHeader(t, req, body)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return s.executeTestRequest(t, req)
}

func checkHeader(t *testing.T, h http.Header) {
	expected := "application/json"
	got := h.Get("Content-Type")
	assert.Equal(t, expected, got, "Content-Type expected %s, got %s", expected, got)
	assert.NotEmpty(t, h.Get("X-Request-ID"), "No Request Id")
}

func compareJson(t *testing.T, expected any, actual string) {
	j, err := json.Marshal(expected)
	assert.NoError(t, err, "json marshal")
	assert.JSONEq(t, string(j), actual, "Expected: %v\n Got: %v\n", expected, actual)
}

func decodeJson(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func setRequestBodyAndHeader(t *testing.T, req *http.Request, data interface{}) {
	var jsonData []byte
	switch d := data.(type) {
	case string:
		jsonData = []byte(d)
	default:
		var err error
		jsonData, err = json.Marshal(data)
		assert.NoError(t, err, "Failed to marshal data into JSON")
	}

	req.Body = io.NopCloser(bytes.NewReader(jsonData))
	req.ContentLength = int64(len(jsonData))
	req.Header.Set("Content-Type", "application/json")
}

func requireStatus(t *testing.T, expected int, rr *httptest.ResponseRecorder) {
	t.Helper()
	if !assert.Equal(t, expected, rr.Code) {
		t.Logf("Response: %v", rr.Body.String())
		t.FailNow()
	}
}
