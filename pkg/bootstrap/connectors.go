package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smarena/internal/broker"
	"smarena/pkg/health"
	"smarena/pkg/metrics"
	"smarena/pkg/retry"
)

// startupTimeout bounds the whole dependency dial phase.
const startupTimeout = 2 * time.Minute

// InitRedis dials Redis with the configured startup retry policy and registers
// its readiness check.
func (b *Base) InitRedis(ctx context.Context) (*redis.Client, error) {
	cfg := b.Config.Database.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := b.dial(ctx, "redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	b.Health.Register(health.NewRedisChecker(rdb))
	b.Logger.Infow("Redis connected successfully", "host", cfg.Host, "port", cfg.Port)
	return rdb, nil
}

// InitRabbitMQ dials the broker and declares the outbound queue.
func (b *Base) InitRabbitMQ(ctx context.Context) (*broker.RabbitMQConnection, error) {
	var conn *broker.RabbitMQConnection
	err := b.dial(ctx, "rabbitmq", func(context.Context) error {
		c, err := broker.DialRabbitMQ(b.Config.Broker.RabbitMQ, b.Logger)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.Health.Register(health.NewPingChecker("rabbitmq", conn))
	return conn, nil
}

func (b *Base) dial(ctx context.Context, target string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	policy := retry.PolicyFromConfig(b.Config.Broker.Connect)
	return retry.Do(ctx, policy, func() error {
		metrics.IncConnectAttempt(target)
		return fn(ctx)
	}, func(attempt int, err error, next time.Duration) {
		b.Logger.Warnw("Connection attempt failed",
			"target", target,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"next_delay", next,
			"error", err,
		)
	})
}
