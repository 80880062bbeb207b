// Package telemetry provides OpenTelemetry distributed tracing for the
// full-disjunction integration engine. It instruments each pipeline stage
// with its own span, supports W3C Trace Context propagation, and exports to
// OTLP or stdout.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/galindo-legaria/alite"

// Config holds tracing configuration.
type Config struct {
	Enabled bool

	// Exporter selects the trace exporter: "otlp", "stdout", or "none".
	Exporter string

	// Endpoint is the OTLP collector address (e.g., "localhost:4317").
	Endpoint string

	// SampleRate controls the sampling ratio (0.0 to 1.0).
	SampleRate float64

	ServiceName string

	// Insecure disables TLS for the OTLP exporter.
	Insecure bool
}

// DefaultConfig returns tracing defaults (disabled).
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		Exporter:    "otlp",
		Endpoint:    "localhost:4317",
		SampleRate:  1.0,
		ServiceName: "alite",
		Insecure:    true,
	}
}

// Provider wraps the OTEL TracerProvider and exposes pipeline-stage helpers.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// Init sets up the global TracerProvider based on the config.
// Returns a Provider that must be shut down with Shutdown().
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{
			tracer: trace.NewNoopTracerProvider().Tracer(tracerName),
		}, nil
	}

	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.Exporter {
	case "otlp":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
	case "none", "":
		return &Provider{
			tracer: trace.NewNoopTracerProvider().Tracer(tracerName),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter: %q (supported: otlp, stdout, none)", cfg.Exporter)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("0.1.0"),
		),
		resource.WithProcessRuntimeDescription(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRate < 1.0 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{
		tp:     tp,
		tracer: tp.Tracer(tracerName),
	}, nil
}

// Shutdown flushes pending spans and shuts down the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Tracer returns the engine's tracer for creating spans.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// --- Span helpers, one per pipeline stage ---

// StartRequest creates a root span for an incoming integration request.
func (p *Provider) StartRequest(ctx context.Context, endpoint string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "alite.request",
		trace.WithAttributes(attribute.String("alite.endpoint", endpoint)),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartEmbedding creates a span for L0, the column embedding adapter.
func (p *Provider) StartEmbedding(ctx context.Context, columnCount int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "alite.embedding",
		trace.WithAttributes(attribute.Int("alite.embedding.column_count", columnCount)),
	)
}

// StartClustering creates a span for L1, the constrained agglomerative
// clusterer, for one candidate k.
func (p *Provider) StartClustering(ctx context.Context, columnCount, k int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "alite.clustering",
		trace.WithAttributes(
			attribute.Int("alite.clustering.column_count", columnCount),
			attribute.Int("alite.clustering.k", k),
		),
	)
}

// StartAssign creates a span for L2, the silhouette-driven integration-id
// assignment across every candidate k.
func (p *Provider) StartAssign(ctx context.Context, kMin, kMax int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "alite.assign",
		trace.WithAttributes(
			attribute.Int("alite.assign.k_min", kMin),
			attribute.Int("alite.assign.k_max", kMax),
		),
	)
}

// StartUnion creates a span for L3, outer union of one table into the
// running accumulator.
func (p *Provider) StartUnion(ctx context.Context, tableName string, accumulatedTuples int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "alite.union",
		trace.WithAttributes(
			attribute.String("alite.union.table", tableName),
			attribute.Int("alite.union.accumulated_tuples", accumulatedTuples),
		),
	)
}

// StartComplement creates a span for L4, the fixed-point tuple merge.
func (p *Provider) StartComplement(ctx context.Context, inputTuples, maxIterations int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "alite.complement",
		trace.WithAttributes(
			attribute.Int("alite.complement.input_tuples", inputTuples),
			attribute.Int("alite.complement.max_iterations", maxIterations),
		),
	)
}

// StartSubsume creates a span for L5, dominance-based tuple elimination.
func (p *Provider) StartSubsume(ctx context.Context, inputTuples int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "alite.subsume",
		trace.WithAttributes(attribute.Int("alite.subsume.input_tuples", inputTuples)),
	)
}

// StartCacheLookup creates a span for an embedding-cache lookup.
func (p *Provider) StartCacheLookup(ctx context.Context, key string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "alite.cache.lookup",
		trace.WithAttributes(attribute.String("alite.cache.key", key)),
	)
}

// RecordResult adds result attributes to a span.
func RecordResult(span trace.Span, inputTuples, outputTuples, clusterCount int, latency time.Duration) {
	span.SetAttributes(
		attribute.Int("alite.result.input_tuples", inputTuples),
		attribute.Int("alite.result.output_tuples", outputTuples),
		attribute.Int("alite.result.cluster_count", clusterCount),
		attribute.Int64("alite.result.latency_ms", latency.Milliseconds()),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("error", true))
}
