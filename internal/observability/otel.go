// Package observability installs the OpenTelemetry tracer provider shared
// by the HTTP layer (otelgin), the record service spans and the GORM
// tracing plugin. Export goes to an OTLP/gRPC collector; exporter errors
// are reported through zerolog instead of the SDK's default stderr logger.
package observability

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"

	"github.com/tbourn/unarchive-tracker/internal/config"
)

// ServiceNamespace groups this service's spans in the collector.
const ServiceNamespace = "records"

// ShutdownFunc flushes pending spans and stops the provider.
type ShutdownFunc func(context.Context) error

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
				semconv.ServiceNamespace(ServiceNamespace),
			),
		)
	}
)

// SetupOTel configures tracing from cfg and returns its shutdown function.
// When tracing is disabled the globals are left alone and the returned
// function is a no-op. Globals are only replaced once every piece was
// built successfully.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(opts...))
	if err != nil {
		return nil, err
	}
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version)
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(logExportError))

	log.Info().
		Str("endpoint", cfg.Endpoint).
		Str("service", cfg.ServiceName).
		Float64("sample_ratio", cfg.SampleRatio).
		Msg("tracing enabled")

	return tp.Shutdown, nil
}

func logExportError(err error) {
	log.Warn().Err(err).Str("component", "otel").Msg("telemetry export failed")
}
