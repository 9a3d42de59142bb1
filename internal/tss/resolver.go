// Package tss resolves the Arena sender id (TSS id) of the practitioner who
// wrote a sykmelding.
package tss

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"smarena/internal/config"
	"smarena/internal/logger"
	"smarena/pkg/circuitbreaker"
)

// ErrUnavailable means the lookup service could not answer. It is fatal for
// the message being handled; a missing id is not an error.
var ErrUnavailable = errors.New("tss lookup unavailable")

// Resolver returns the sender id for a practitioner at an organisation, or ""
// when none is registered.
type Resolver interface {
	Resolve(ctx context.Context, fnr, orgName, requestID string) (string, error)
}

// New builds the resolver chain: HTTP lookup, optionally behind a circuit
// breaker, optionally behind a Redis cache.
func New(cfg *config.Config, rdb redis.UniversalClient, log logger.Logger) Resolver {
	var resolver Resolver = NewHTTPResolver(cfg.TSS, log)

	if cfg.CircuitBreaker.Enabled {
		resolver = NewCircuitBreakerResolver(resolver, circuitbreaker.SettingsFromConfig("tss", cfg.CircuitBreaker))
	}

	if rdb != nil && cfg.TSS.CacheTTL > 0 {
		resolver = NewCachedResolver(resolver, NewRedisCache(rdb), cfg.TSS.CacheTTL, log)
	}

	return resolver
}
