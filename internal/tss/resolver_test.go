package tss

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarena/internal/config"
	"smarena/internal/logger"
	"smarena/pkg/circuitbreaker"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	captured := &http.Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = *r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestHTTPResolver(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "found", status: http.StatusOK, body: `{"tssid":"80000821"}`, want: "80000821"},
		{name: "not found", status: http.StatusNotFound, body: ``, want: ""},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: true},
		{name: "unauthorized", status: http.StatusUnauthorized, body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, req := newServer(t, tt.status, tt.body)
			resolver := NewHTTPResolver(config.TSSConfig{URL: srv.URL, Token: "secret", Timeout: time.Second}, logger.NopLogger())

			got, err := resolver.Resolve(context.Background(), "123145", "Legevakt", "12314-123124-43252-2344")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			assert.Equal(t, "/api/v1/samhandler/arena", req.URL.Path)
			assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
			assert.Equal(t, "12314-123124-43252-2344", req.Header.Get("requestId"))
			assert.Equal(t, "123145", req.Header.Get("samhandlerFnr"))
			assert.Equal(t, "Legevakt", req.Header.Get("samhandlerOrgName"))
		})
	}
}

func TestHTTPResolverConnectionRefused(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	resolver := NewHTTPResolver(config.TSSConfig{URL: url, Timeout: time.Second}, logger.NopLogger())
	_, err := resolver.Resolve(context.Background(), "123145", "Legevakt", "id")
	assert.ErrorIs(t, err, ErrUnavailable)
}

type fakeResolver struct {
	calls int
	id    string
	err   error
}

func (f *fakeResolver) Resolve(context.Context, string, string, string) (string, error) {
	f.calls++
	return f.id, f.err
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func TestCachedResolverShortCircuits(t *testing.T) {
	next := &fakeResolver{id: "80000821"}
	cache := &memoryCache{values: map[string]string{}}
	resolver := NewCachedResolver(next, cache, time.Hour, logger.NopLogger())

	for range 3 {
		id, err := resolver.Resolve(context.Background(), "123145", "Legevakt", "id")
		require.NoError(t, err)
		assert.Equal(t, "80000821", id)
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "80000821", cache.values["tss:123145:Legevakt"])
}

func TestCachedResolverDoesNotCacheMisses(t *testing.T) {
	next := &fakeResolver{}
	cache := &memoryCache{values: map[string]string{}}
	resolver := NewCachedResolver(next, cache, time.Hour, logger.NopLogger())

	for range 2 {
		id, err := resolver.Resolve(context.Background(), "123145", "Legevakt", "id")
		require.NoError(t, err)
		assert.Empty(t, id)
	}
	assert.Equal(t, 2, next.calls)
	assert.Empty(t, cache.values)
}

func TestCachedResolverSurvivesCacheErrors(t *testing.T) {
	next := &fakeResolver{id: "80000821"}
	cache := &memoryCache{values: map[string]string{}, getErr: errors.New("redis down")}
	resolver := NewCachedResolver(next, cache, time.Hour, logger.NopLogger())

	id, err := resolver.Resolve(context.Background(), "123145", "Legevakt", "id")
	require.NoError(t, err)
	assert.Equal(t, "80000821", id)
}

func TestCircuitBreakerResolver(t *testing.T) {
	next := &fakeResolver{err: errors.New("connection reset")}
	resolver := NewCircuitBreakerResolver(next, circuitbreaker.Settings{
		Name: "tss-test", MaxRequests: 1, Timeout: time.Minute, FailureRatio: 0.5, MinRequests: 2,
	})

	for range 2 {
		_, err := resolver.Resolve(context.Background(), "123145", "Legevakt", "id")
		assert.ErrorIs(t, err, ErrUnavailable)
	}

	_, err := resolver.Resolve(context.Background(), "123145", "Legevakt", "id")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, 2, next.calls)
}

func TestNewBuildsChain(t *testing.T) {
	cfg := &config.Config{TSS: config.TSSConfig{URL: "http://tss"}}
	_, ok := New(cfg, nil, logger.NopLogger()).(*HTTPResolver)
	assert.True(t, ok)

	cfg.CircuitBreaker.Enabled = true
	_, ok = New(cfg, nil, logger.NopLogger()).(*CircuitBreakerResolver)
	assert.True(t, ok)
}
