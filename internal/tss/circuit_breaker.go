package tss

import (
	"context"
	"errors"
	"fmt"

	"smarena/pkg/circuitbreaker"
)

type CircuitBreakerResolver struct {
	next Resolver
	cb   *circuitbreaker.Wrapper
}

func NewCircuitBreakerResolver(next Resolver, settings circuitbreaker.Settings) *CircuitBreakerResolver {
	return &CircuitBreakerResolver{
		next: next,
		cb:   circuitbreaker.NewWrapper(settings),
	}
}

// Resolve fails fast with circuitbreaker.ErrOpen while the lookup service is
// known to be down. Every error it returns wraps ErrUnavailable.
func (r *CircuitBreakerResolver) Resolve(ctx context.Context, fnr, orgName, requestID string) (string, error) {
	id, err := circuitbreaker.Execute(ctx, r.cb, func() (string, error) {
		return r.next.Resolve(ctx, fnr, orgName, requestID)
	})
	if err == nil {
		return id, nil
	}
	if errors.Is(err, ErrUnavailable) {
		return "", err
	}
	return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
}
