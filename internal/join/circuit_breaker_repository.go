package join

import (
	"context"
	"time"

	"smarena/pkg/circuitbreaker"
)

// CircuitBreakerRepository fails fast with circuitbreaker.ErrOpen while Redis
// is known to be down.
type CircuitBreakerRepository struct {
	repo Repository
	cb   *circuitbreaker.Wrapper
}

func NewCircuitBreakerRepository(repo Repository, settings circuitbreaker.Settings) *CircuitBreakerRepository {
	return &CircuitBreakerRepository{
		repo: repo,
		cb:   circuitbreaker.NewWrapper(settings),
	}
}

func (r *CircuitBreakerRepository) SavePending(ctx context.Context, side Side, key string, entry Entry, ttl time.Duration) error {
	_, err := r.cb.ExecuteWithContext(ctx, func() (any, error) {
		return nil, r.repo.SavePending(ctx, side, key, entry, ttl)
	})
	return err
}

func (r *CircuitBreakerRepository) Pending(ctx context.Context, side Side, key string) (*Entry, error) {
	return circuitbreaker.Execute(ctx, r.cb, func() (*Entry, error) {
		return r.repo.Pending(ctx, side, key)
	})
}

func (r *CircuitBreakerRepository) DeletePending(ctx context.Context, key string, sides ...Side) error {
	_, err := r.cb.ExecuteWithContext(ctx, func() (any, error) {
		return nil, r.repo.DeletePending(ctx, key, sides...)
	})
	return err
}

func (r *CircuitBreakerRepository) MarkJoined(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return circuitbreaker.Execute(ctx, r.cb, func() (bool, error) {
		return r.repo.MarkJoined(ctx, key, ttl)
	})
}

func (r *CircuitBreakerRepository) UnmarkJoined(ctx context.Context, key string) error {
	_, err := r.cb.ExecuteWithContext(ctx, func() (any, error) {
		return nil, r.repo.UnmarkJoined(ctx, key)
	})
	return err
}

func (r *CircuitBreakerRepository) IsJoined(ctx context.Context, key string) (bool, error) {
	return circuitbreaker.Execute(ctx, r.cb, func() (bool, error) {
		return r.repo.IsJoined(ctx, key)
	})
}

func (r *CircuitBreakerRepository) State() string {
	return r.cb.State().String()
}
