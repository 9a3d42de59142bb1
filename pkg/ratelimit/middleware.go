package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"smarena/internal/config"
	"smarena/internal/constants"
	apperrors "smarena/pkg/errors"
	"smarena/pkg/metrics"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiters hands out one token bucket per client ip and forgets clients that
// have been idle for longer than MaxAge.
type Limiters struct {
	cfg      config.RateLimitConfig
	mu       sync.Mutex
	limiters map[string]*clientLimiter
}

func NewLimiters(cfg config.RateLimitConfig) *Limiters {
	if cfg.RPS <= 0 {
		cfg.RPS = constants.DefaultRateLimitRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = constants.DefaultRateLimitBurst
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = constants.DefaultRateLimitMaxAge
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = cfg.MaxAge / 2
	}
	return &Limiters{cfg: cfg, limiters: make(map[string]*clientLimiter)}
}

func (l *Limiters) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.limiters[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.limiters[client] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

func (l *Limiters) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for client, cl := range l.limiters {
		if now.Sub(cl.lastSeen) > l.cfg.MaxAge {
			delete(l.limiters, client)
		}
	}
}

// Run evicts idle clients until ctx is done.
func (l *Limiters) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.cleanup(now)
		}
	}
}

func (l *Limiters) Middleware() gin.HandlerFunc {
	limit := strconv.Itoa(int(l.cfg.RPS))

	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", limit)

		if !l.Allow(c.ClientIP()) {
			metrics.RateLimitRequestsTotal.WithLabelValues("limited").Inc()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apperrors.ToErrorResponse(apperrors.ErrTooManyRequests))
			return
		}

		metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()
		c.Next()
	}
}
