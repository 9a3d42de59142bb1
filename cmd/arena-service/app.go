package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"smarena/internal/arena"
	"smarena/internal/broker"
	"smarena/internal/config"
	"smarena/internal/constants"
	"smarena/internal/logger"
	"smarena/internal/rules"
	"smarena/internal/tss"
	"smarena/pkg/bootstrap"
	"smarena/pkg/metrics"
	"smarena/pkg/ratelimit"
)

type App struct {
	*bootstrap.Base
	redis     *redis.Client
	rabbit    *broker.RabbitMQConnection
	evaluator *rules.Evaluator
	resolver  tss.Resolver
	limiters  *ratelimit.Limiters
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceNameArena)
	}
	return &App{
		Base: bootstrap.NewBase(cfg, log, constants.ServiceNameArena),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.InitTracing(); err != nil {
		return err
	}

	metrics.RegisterArenaMetrics()
	metrics.RegisterBrokerMetrics()
	metrics.RegisterHTTPMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	// Redis only backs the sender id cache.
	var cache redis.UniversalClient
	if a.Config.TSS.CacheTTL > 0 && a.Config.Database.Redis.Host != "" {
		rdb, err := a.InitRedis(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		a.redis = rdb
		cache = rdb
	}

	rabbit, err := a.InitRabbitMQ(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	a.rabbit = rabbit

	a.evaluator = rules.NewEvaluator(rules.ValidationRuleChain())
	a.resolver = tss.New(a.Config, cache, a.Logger)

	a.InitHTTP()
	api := a.Router.Group("")
	if a.Config.RateLimit.Enabled {
		a.limiters = ratelimit.NewLimiters(a.Config.RateLimit)
		api.Use(a.limiters.Middleware())
	}
	arena.NewHandler(a.evaluator, a.Logger).RegisterRoutes(api)

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.RunHTTP(gCtx)
	})

	if a.limiters != nil {
		g.Go(func() error {
			a.limiters.Run(gCtx)
			return nil
		})
	}

	g.Go(func() error {
		return a.runWorkers(gCtx)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	closers := []func(context.Context) error{}
	if a.rabbit != nil {
		closers = append(closers, bootstrap.Closer("rabbitmq", a.rabbit.Close))
	}
	if a.redis != nil {
		closers = append(closers, bootstrap.Closer("redis", a.redis.Close))
	}
	return a.Base.Shutdown(ctx, closers...)
}
