package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracer delegates to the globally installed provider, so spans started
// before InitTracing runs are simply dropped.
var Tracer trace.Tracer = otel.Tracer("scopecheck")

type TracingOptions struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

// InitTracing installs a global TracerProvider. With no endpoint the provider
// records spans without exporting them. The returned function flushes and
// shuts the provider down.
func InitTracing(ctx context.Context, opts TracingOptions) (func(context.Context) error, error) {
	if !opts.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	name := strings.TrimSpace(opts.ServiceName)
	if name == "" {
		name = "scopecheck"
	}
	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint != "" {
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter for %s: %w", endpoint, err)
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
	}

	provider := sdktrace.NewTracerProvider(providerOpts...)
	otel.SetTracerProvider(provider)
	slog.Info("tracing enabled", "service", name, "endpoint", endpoint)
	return provider.Shutdown, nil
}
