package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func newRouter(state *ApplicationState, registry *CheckerRegistry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, state, registry)
	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestProbes(t *testing.T) {
	tests := []struct {
		name       string
		alive      bool
		ready      bool
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "alive", alive: true, path: "/internal/is_alive", wantStatus: http.StatusOK, wantBody: "I'm alive! :)"},
		{name: "dead", alive: false, path: "/internal/is_alive", wantStatus: http.StatusInternalServerError, wantBody: "I'm dead x_x"},
		{name: "ready", alive: true, ready: true, path: "/internal/is_ready", wantStatus: http.StatusOK, wantBody: "I'm ready! :)"},
		{name: "not ready", alive: true, path: "/internal/is_ready", wantStatus: http.StatusInternalServerError, wantBody: "Please wait! I'm not ready :("},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewApplicationState()
			state.SetAlive(tt.alive)
			state.SetReady(tt.ready)

			w := get(newRouter(state, nil), tt.path)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestInitialState(t *testing.T) {
	state := NewApplicationState()
	assert.True(t, state.Alive())
	assert.False(t, state.Ready())

	state.SetReady(true)
	state.MarkFailed()
	assert.False(t, state.Alive())
	assert.False(t, state.Ready())
}

func TestReadyAfterFailureStaysNotReady(t *testing.T) {
	state := NewApplicationState()
	state.MarkFailed()
	state.SetReady(true)

	assert.False(t, state.Alive())
	assert.False(t, state.Ready())

	w := get(newRouter(state, nil), "/internal/is_ready")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReadinessRequiresDependencies(t *testing.T) {
	state := NewApplicationState()
	state.SetReady(true)

	down := NewPingChecker("rabbitmq", pingFunc(func(context.Context) error { return errors.New("closed") }))
	router := newRouter(state, NewCheckerRegistry(down))

	w := get(router, "/internal/is_ready")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = get(router, "/internal/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "rabbitmq ping failed: closed")
}

func TestCheckerRegistry(t *testing.T) {
	up := NewPingChecker("rabbitmq", pingFunc(func(context.Context) error { return nil }))
	registry := NewCheckerRegistry(up)

	h := registry.Check(context.Background())
	assert.Equal(t, StatusHealthy, h.Status)
	assert.Equal(t, StatusHealthy, h.Checks["rabbitmq"].Status)
}
