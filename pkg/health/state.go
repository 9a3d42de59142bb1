package health

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

const (
	aliveBody    = "I'm alive! :)"
	deadBody     = "I'm dead x_x"
	readyBody    = "I'm ready! :)"
	notReadyBody = "Please wait! I'm not ready :("
)

// ApplicationState is the process-wide liveness and readiness flag pair. It
// starts alive and not ready. Once failed it never reports ready again.
type ApplicationState struct {
	mu    sync.Mutex
	alive atomic.Bool
	ready atomic.Bool
}

func NewApplicationState() *ApplicationState {
	s := &ApplicationState{}
	s.alive.Store(true)
	return s
}

func (s *ApplicationState) Alive() bool {
	return s.alive.Load()
}

func (s *ApplicationState) Ready() bool {
	return s.ready.Load()
}

func (s *ApplicationState) SetAlive(alive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive.Store(alive)
	if !alive {
		s.ready.Store(false)
	}
}

// SetReady is ignored while the process is not alive.
func (s *ApplicationState) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready.Store(ready && s.alive.Load())
}

// MarkFailed flips both flags off. Used when a worker stops on a fatal error.
func (s *ApplicationState) MarkFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive.Store(false)
	s.ready.Store(false)
}

// RegisterRoutes mounts the probes under /internal. When registry is not nil
// readiness also requires every dependency check to pass.
func RegisterRoutes(router gin.IRoutes, state *ApplicationState, registry *CheckerRegistry) {
	router.GET("/internal/is_alive", func(c *gin.Context) {
		if state.Alive() {
			c.String(http.StatusOK, aliveBody)
			return
		}
		c.String(http.StatusInternalServerError, deadBody)
	})

	router.GET("/internal/is_ready", func(c *gin.Context) {
		ready := state.Ready()
		if ready && registry != nil {
			ready = registry.Check(c.Request.Context()).Status == StatusHealthy
		}
		if ready {
			c.String(http.StatusOK, readyBody)
			return
		}
		c.String(http.StatusInternalServerError, notReadyBody)
	})

	if registry != nil {
		router.GET("/internal/health", func(c *gin.Context) {
			h := registry.Check(c.Request.Context())
			status := http.StatusOK
			if h.Status == StatusUnhealthy {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, h)
		})
	}
}
