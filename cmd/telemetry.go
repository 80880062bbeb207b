package cmd

import (
	"context"

	"github.com/galindo-legaria/alite/pkg/telemetry"
	"github.com/spf13/cobra"
)

// addTracingFlags registers the flags that configure pipeline-stage
// tracing. Shared by integrate, serve, and mcp.
func addTracingFlags(c *cobra.Command) {
	c.Flags().Bool("tracing", false, "emit an OpenTelemetry span per pipeline stage")
	c.Flags().String("trace-exporter", "otlp", "trace exporter: otlp or stdout")
	c.Flags().String("otlp-endpoint", "localhost:4317", "OTLP collector address")
	c.Flags().Float64("trace-sample-rate", 1.0, "fraction of runs to sample (0.0-1.0)")
}

// buildTracer initializes a telemetry.Provider from the tracing flags. With
// --tracing unset this is a no-op tracer: Init never touches the network in
// that case, so it's always safe to call.
func buildTracer(ctx context.Context, cmd *cobra.Command) (*telemetry.Provider, error) {
	enabled, _ := cmd.Flags().GetBool("tracing")
	exporter, _ := cmd.Flags().GetString("trace-exporter")
	endpoint, _ := cmd.Flags().GetString("otlp-endpoint")
	sampleRate, _ := cmd.Flags().GetFloat64("trace-sample-rate")

	cfg := telemetry.DefaultConfig()
	cfg.Enabled = enabled
	cfg.Exporter = exporter
	cfg.Endpoint = endpoint
	cfg.SampleRate = sampleRate

	return telemetry.Init(ctx, cfg)
}
