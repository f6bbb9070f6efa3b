// Package tracing configures OpenTelemetry tracing for rl-loop.
//
// Tracing is only enabled if OTEL_EXPORTER_OTLP_ENDPOINT is set, in which case spans are exported
// over OTLP/HTTP. Otherwise, the global no-op tracer provider is left in place.
package tracing

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"k8s.io/klog/v2"
)

// InstrumentationName of the rl-loop tracer.
const InstrumentationName = "github.com/janpfeifer/rlloop"

// DefaultServiceName is used if OTEL_SERVICE_NAME is not set.
const DefaultServiceName = "rl-loop"

// Setup installs the global tracer provider if OTEL_EXPORTER_OTLP_ENDPOINT is set.
// It returns the function to flush and shutdown the provider, to be called on exit.
func Setup(ctx context.Context) (shutdown func(context.Context) error, err error) {
	shutdown = func(context.Context) error { return nil }
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		klog.V(1).Info("Tracing disabled: OTEL_EXPORTER_OTLP_ENDPOINT not set")
		return
	}
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure())
	if err != nil {
		return shutdown, errors.Wrapf(err, "failed to create OTLP exporter for %q", endpoint)
	}
	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetTracerProvider(provider)
	klog.Infof("Tracing enabled, exporting to %s", endpoint)
	return provider.Shutdown, nil
}

// Tracer returns the rl-loop tracer from the global provider.
func Tracer() oteltrace.Tracer {
	return otel.Tracer(InstrumentationName)
}
