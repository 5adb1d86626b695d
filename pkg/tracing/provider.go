package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ProviderConfig holds configuration for the trace provider.
type ProviderConfig struct {
	ServiceName  string
	OTLPEndpoint string
	Insecure     bool
	Timeout      time.Duration
}

// NewProvider builds an OTLP/HTTP-backed trace provider, registers it as the
// global provider, and wires the package tracer. The returned shutdown func
// flushes pending spans.
func NewProvider(ctx context.Context, cfg ProviderConfig) (func(context.Context) error, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithTimeout(cfg.Timeout),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	var exporter *otlptrace.Exporter
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	SetTracer(tp.Tracer(cfg.ServiceName))

	return tp.Shutdown, nil
}
