// Package telemetry installs the global tracer provider for one CLI run.
package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceName is reported as service.name on every span
const ServiceName = "keyfc"

// Telemetry owns the installed provider. The zero value exports nothing.
type Telemetry struct {
	TracerProvider *trace.TracerProvider
}

// Shutdown flushes pending spans and stops the provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.TracerProvider == nil {
		return nil
	}
	errlist := []error{}
	if err := t.TracerProvider.ForceFlush(ctx); err != nil {
		errlist = append(errlist, err)
	}
	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		errlist = append(errlist, err)
	}
	return errors.Join(errlist...)
}

// Setup exports spans to an OTLP/HTTP collector at endpoint. An empty endpoint
// installs nothing and spans stay no-ops.
func Setup(ctx context.Context, endpoint string, headers map[string]string) (*Telemetry, error) {
	if endpoint == "" {
		return &Telemetry{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpointURL(endpoint),
		otlptracehttp.WithHeaders(headers),
	)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("endpoint", endpoint).
		Bool("headers", len(headers) > 0).
		Msg("Trace exporter initialized")
	return Install(trace.WithBatcher(exporter))
}

// Install builds a provider from opts and makes it the global one
func Install(opts ...trace.TracerProviderOption) (*Telemetry, error) {
	r, err := newResource(ServiceName)
	if err != nil {
		return nil, err
	}
	provider := trace.NewTracerProvider(append(opts, trace.WithResource(r))...)
	otel.SetTracerProvider(provider)
	return &Telemetry{TracerProvider: provider}, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}
