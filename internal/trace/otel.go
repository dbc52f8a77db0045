// Package trace is component J, the debug trace recorder: it turns the
// stage events internal/common already fans out to (internal/pipeline and
// internal/sync's PipelineInfo/Warn/Error calls) into otel span events for
// live observability and rows for a durable parquet sink queryable later
// via duckdb. Separately, it holds the in-memory "last completed run" that
// GET /debug/last-trace serves from, recorded through SetLastTrace rather
// than built from stage events.
package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("vecthare")

// InitOTLP wires the span exporter: OTLP-over-gRPC when endpoint is set
// (a collector address from config), otherwise stdout so a dev run still
// produces spans without standing up a collector. Returns a shutdown func
// the caller defers at process exit.
func InitOTLP(ctx context.Context, serviceName, otlpEndpoint string) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	var err error
	if otlpEndpoint != "" {
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(otlpEndpoint), otlptracegrpc.WithInsecure())
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter), sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// StartSpan opens the one span a pipeline run or sync batch is wrapped
// in; every stage log within it becomes a span event via Recorder.
func StartSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	return tracer.Start(ctx, name)
}
