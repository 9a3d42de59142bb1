package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smarena/internal/config"
	"smarena/internal/constants"
	"smarena/internal/logger"
	"smarena/pkg/health"
	"smarena/pkg/middleware"
	"smarena/pkg/tracing"
)

// Base holds what every service process shares: configuration, logging,
// the probe state and the internal HTTP server.
type Base struct {
	Config      *config.Config
	Logger      logger.Logger
	State       *health.ApplicationState
	Health      *health.CheckerRegistry
	Router      *gin.Engine
	ServiceName string

	server         *http.Server
	tracerProvider *tracing.TracerProvider
}

func NewBase(cfg *config.Config, log logger.Logger, serviceName string) *Base {
	return &Base{
		Config:      cfg,
		Logger:      log,
		State:       health.NewApplicationState(),
		Health:      health.NewCheckerRegistry(),
		ServiceName: serviceName,
	}
}

// InitTracing installs the tracer provider for the service.
func (b *Base) InitTracing() error {
	tp, err := tracing.Init(b.Config.Tracing, b.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	b.tracerProvider = tp
	return nil
}

// InitHTTP builds the router with the probes and the metrics endpoint. Services
// add their own routes to Router before RunHTTP is called.
func (b *Base) InitHTTP() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if b.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(b.ServiceName))
	}
	router.Use(middleware.RecoveryMiddleware(b.Logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(b.Logger))

	health.RegisterRoutes(router, b.State, b.Health)
	router.GET("/internal/prometheus", gin.WrapH(promhttp.Handler()))

	b.Router = router
	b.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", b.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  b.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: b.Config.Server.WriteTimeoutSeconds,
	}
}

// RunHTTP serves until ctx is done, then shuts the server down.
func (b *Base) RunHTTP(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		b.Logger.InfowCtx(ctx, "Server listening", "port", b.Config.Server.Port)
		if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := b.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Shutdown releases shared resources and the ones passed in as closers.
func (b *Base) Shutdown(ctx context.Context, closers ...func(ctx context.Context) error) error {
	b.Logger.InfowCtx(ctx, "Shutting down application")
	b.State.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, closeFn := range closers {
		if err := closeFn(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}

	if b.tracerProvider != nil {
		if err := b.tracerProvider.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown errors: %w", err)
	}

	b.Logger.InfowCtx(ctx, "Application exited successfully")
	return nil
}

// Closer adapts a plain Close method to the Shutdown signature.
func Closer(name string, closeFn func() error) func(context.Context) error {
	return func(context.Context) error {
		if err := closeFn(); err != nil {
			return fmt.Errorf("%s close error: %w", name, err)
		}
		return nil
	}
}
