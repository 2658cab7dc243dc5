package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/config"
	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/handler"
	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/middleware"
	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/service"
	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/telemetry"
	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/pkg/provider"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Application struct {
	config         *config.Config
	router         *gin.Engine
	logger         *zap.Logger
	server         *http.Server
	tracerShutdown func(context.Context) error
}

type Option func(*Application)

// WithLogger replaces the logger built from cfg.Logging.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Application) { a.logger = logger }
}

// New wires the application. It fails, without side effects on the
// process, when the configuration is unusable.
func New(cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{config: cfg}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		logger, err := telemetry.NewLogger(cfg.Logging)
		if err != nil {
			return nil, err
		}
		app.logger = logger
	}

	shutdown, err := telemetry.InitTracer(cfg.Tracing, app.logger)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	app.tracerShutdown = shutdown

	switch cfg.Server.Mode {
	case config.ModeRelease:
		gin.SetMode(gin.ReleaseMode)
	case config.ModeTest:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	app.logger.Info("Running in "+cfg.Server.Mode+" mode")

	rates := provider.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, app.logger,
		provider.WithObserver(observeUpstream),
	)
	currencyService := service.NewCurrencyService(rates, app.logger,
		service.WithOutcomeRecorder(func(outcome string) {
			telemetry.ConversionsTotal.WithLabelValues(outcome).Inc()
		}),
	)
	currencyHandler := handler.NewCurrencyHandler(currencyService)

	app.router = gin.New()
	app.setupMiddleware()
	app.setupRouter(currencyHandler)

	app.logger.Info("Application initialized",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.Duration("upstream_timeout", cfg.Upstream.Timeout),
	)
	return app, nil
}

func observeUpstream(status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	telemetry.UpstreamRequestDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (a *Application) setupMiddleware() {
	a.router.Use(middleware.RecoveryMiddleware(a.logger))
	a.router.Use(middleware.RequestIDMiddleware())
	a.router.Use(middleware.TracingMiddleware())
	a.router.Use(middleware.LoggingMiddleware(a.logger))
	a.router.Use(middleware.PrometheusMiddleware())
	a.router.Use(middleware.CORSMiddleware())
	a.logger.Debug("Middleware configured")
}

func (a *Application) setupRouter(currencyHandler *handler.CurrencyHandler) {
	a.router.GET("/health", handler.HealthCheck)
	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	a.router.GET("/convert", currencyHandler.Convert)
	a.logger.Debug("Routes configured",
		zap.String("health", "GET /health"),
		zap.String("metrics", "GET /metrics"),
		zap.String("convert", "GET /convert"),
	)
}

// Handler exposes the router, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.router
}

// Run serves until the listener fails or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (a *Application) Run() error {
	a.server = &http.Server{
		Addr:         a.config.Server.Addr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)

	go func() {
		a.logger.Info("🚀 Server starting",
			zap.String("address", a.server.Addr),
			zap.String("mode", a.config.Server.Mode),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if tracerErr := a.tracerShutdown(ctx); tracerErr != nil {
			a.logger.Warn("Failed to flush traces", zap.Error(tracerErr))
		}
		a.flush()
		if !ok {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		a.logger.Info("🛑 Received shutdown signal", zap.String("signal", sig.String()))
		return a.Shutdown()
	}
}

// Shutdown stops accepting connections, waits for in-flight requests up to
// the configured timeout and flushes telemetry.
func (a *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	var err error
	if a.server != nil {
		if shutdownErr := a.server.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
		}
	}
	if tracerErr := a.tracerShutdown(ctx); tracerErr != nil {
		a.logger.Warn("Failed to flush traces", zap.Error(tracerErr))
	}
	a.flush()

	if err == nil {
		a.logger.Info("✅ Server stopped gracefully")
	}
	return err
}

func (a *Application) flush() {
	_ = a.logger.Sync()
}
