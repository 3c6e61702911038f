// Package telemetry wires OpenTelemetry tracing for the benchmark harness.
// Spans go to an io.Writer as JSON when tracing is enabled and nowhere
// otherwise.
package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName is the tracer name used by the harness.
const InstrumentationName = "github.com/tahsin716/fanout/bench"

// Provider owns a tracer and the means to flush it.
type Provider struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// NewProvider returns a Provider exporting spans to w. A nil w gives a no-op
// provider whose spans cost nothing and are never exported.
func NewProvider(w io.Writer) (*Provider, error) {
	if w == nil {
		return &Provider{
			tracer:   noop.NewTracerProvider().Tracer(InstrumentationName),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	return &Provider{
		tracer:   tp.Tracer(InstrumentationName),
		shutdown: tp.Shutdown,
	}, nil
}

// Tracer returns the provider's tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown flushes and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutdown: %w", err)
	}
	return nil
}
