package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	ServiceName    = "currency-converter-api"
	ServiceVersion = "v1.0.0"
)

// InitTracer installs a global tracer provider exporting to the configured
// OTLP collector. With no endpoint the global no-op provider stays in place
// and the returned shutdown func does nothing.
func InitTracer(cfg config.TracingConfig, logger *zap.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.Endpoint == "" {
		logger.Info("Tracing exporter disabled")
		return noop, nil
	}

	conn, err := grpc.NewClient(cfg.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp grpc client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
			semconv.ServiceVersionKey.String(ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		_ = conn.Close()
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)

	logger.Info("Tracing exporter initialized", zap.String("endpoint", cfg.Endpoint))

	return shutdownFunc(tp, conn), nil
}

type tracerProvider interface {
	Shutdown(ctx context.Context) error
}

// shutdownFunc flushes tp and then closes conn, which the exporter does not
// own when it is handed in through WithGRPCConn.
func shutdownFunc(tp tracerProvider, conn io.Closer) func(context.Context) error {
	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closeErr := conn.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close otlp grpc client: %w", closeErr)
		}
		return err
	}
}
