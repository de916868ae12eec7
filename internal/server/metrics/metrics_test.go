package metrics

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("Login", "OK", 10*time.Millisecond)
	m.ObserveRequest("Login", "OK", 20*time.Millisecond)
	m.ObserveRequest("Login", "Unauthenticated", time.Millisecond)
	m.TokenRejected()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("Login", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("Login", "Unauthenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenRejections))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestHandler_Endpoints(t *testing.T) {
	m := New()
	m.TokenRejected()

	var readyErr error
	h := m.Handler(func(context.Context) error { return readyErr })

	code, body := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "accounts_token_rejections_total 1")

	code, _ = get(t, h, "/healthz/liveness")
	assert.Equal(t, http.StatusOK, code)

	code, _ = get(t, h, "/healthz/readiness")
	assert.Equal(t, http.StatusOK, code)

	readyErr = errors.New("db down")
	code, body = get(t, h, "/healthz/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "db down")
}

func TestServer_ServeAndShutdown(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer("", New(), nil, logging.Nop{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/healthz/liveness")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "ok"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
