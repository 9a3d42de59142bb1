package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"smarena/internal/broker"
	"smarena/internal/config"
	"smarena/internal/constants"
	"smarena/internal/join"
	"smarena/internal/logger"
	"smarena/pkg/bootstrap"
	"smarena/pkg/circuitbreaker"
	"smarena/pkg/metrics"
)

type App struct {
	*bootstrap.Base
	redis    *redis.Client
	producer broker.Producer
	consumer broker.Consumer
	service  *join.Service
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceNameJoin)
	}
	return &App{
		Base: bootstrap.NewBase(cfg, log, constants.ServiceNameJoin),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.InitTracing(); err != nil {
		return err
	}

	metrics.RegisterJoinMetrics()
	metrics.RegisterBrokerMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	rdb, err := a.InitRedis(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	a.redis = rdb

	var repo join.Repository = join.NewRepository(rdb)
	if a.Config.CircuitBreaker.Enabled {
		repo = join.NewCircuitBreakerRepository(repo,
			circuitbreaker.SettingsFromConfig("redis-join", a.Config.CircuitBreaker))
		a.Logger.InfowCtx(ctx, "Circuit breaker enabled for join repository")
	}

	filter, err := join.CompileManualHandlingFilter(a.Config.Join.ManualHandlingFilter)
	if err != nil {
		return fmt.Errorf("failed to compile manual handling filter: %w", err)
	}
	if filter != nil {
		a.Logger.InfowCtx(ctx, "Manual handling filter enabled", "expression", filter.String())
	}

	a.producer = broker.NewProducer(a.Config.Broker.Kafka, constants.ServiceNameJoin, a.Logger)
	a.consumer = broker.NewJoinConsumer(a.Config.Broker.Kafka, a.Logger)
	a.service = join.NewService(repo, a.producer, filter,
		join.WindowFromConfig(a.Config.Join), a.Config.Broker.Kafka, a.Logger)

	a.InitHTTP()
	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.RunHTTP(gCtx)
	})

	g.Go(func() error {
		a.State.SetReady(true)
		if err := a.consumer.Consume(gCtx, a.service.HandleMessage); err != nil {
			a.Logger.ErrorwCtx(gCtx, "Join consumer stopped", "error", err)
			a.State.MarkFailed()
		}
		return nil
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	closers := []func(context.Context) error{}
	if a.consumer != nil {
		closers = append(closers, bootstrap.Closer("kafka consumer", a.consumer.Close))
	}
	if a.producer != nil {
		closers = append(closers, bootstrap.Closer("kafka producer", a.producer.Close))
	}
	if a.redis != nil {
		closers = append(closers, bootstrap.Closer("redis", a.redis.Close))
	}
	return a.Base.Shutdown(ctx, closers...)
}
