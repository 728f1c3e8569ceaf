package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

var ErrNoOtlpEndpoint = errors.New("no otlp endpoint configured")

const defaultMetricInterval = 5 * time.Second

type protocol string

const (
	protocolGrpc protocol = "grpc"
	protocolHttp protocol = "http"
)

// exportTarget is where one signal (traces or metrics) is shipped to.
type exportTarget struct {
	protocol protocol
	endpoint string
	headers  map[string]string
}

// target picks the grpc endpoint over the http one, a signal with neither is
// not exported at all.
func (c OtlpConnConfig) target() (exportTarget, error) {
	switch {
	case c.GrpcEndpoint != "":
		return exportTarget{protocol: protocolGrpc, endpoint: c.GrpcEndpoint, headers: c.Headers}, nil
	case c.HttpEndpoint != "":
		return exportTarget{protocol: protocolHttp, endpoint: c.HttpEndpoint, headers: c.Headers}, nil
	}
	return exportTarget{}, ErrNoOtlpEndpoint
}

func (c Config) metricInterval() time.Duration {
	if c.MetricIntervalSeconds <= 0 {
		return defaultMetricInterval
	}
	return time.Duration(c.MetricIntervalSeconds) * time.Second
}

func newSpanExporter(ctx context.Context, t exportTarget) (trace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	switch t.protocol {
	case protocolGrpc:
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(t.endpoint),
			otlptracegrpc.WithHeaders(t.headers),
		)
	case protocolHttp:
		return otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(t.endpoint),
			otlptracehttp.WithHeaders(t.headers),
		)
	}
	return nil, fmt.Errorf("unknown otlp protocol %q", t.protocol)
}

func newMetricExporter(ctx context.Context, t exportTarget) (metric.Exporter, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	switch t.protocol {
	case protocolGrpc:
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(t.endpoint),
			otlpmetricgrpc.WithHeaders(t.headers),
		)
	case protocolHttp:
		return otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(t.endpoint),
			otlpmetrichttp.WithHeaders(t.headers),
		)
	}
	return nil, fmt.Errorf("unknown otlp protocol %q", t.protocol)
}

// newTraceProvider returns nil when traces have no endpoint.
func newTraceProvider(ctx context.Context, r *resource.Resource, config Config) (*trace.TracerProvider, error) {
	target, err := config.Otlp.Traces.target()
	if errors.Is(err, ErrNoOtlpEndpoint) {
		slog.Debug("traces are not exported, no endpoint configured")
		return nil, nil
	}
	exporter, err := newSpanExporter(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	slog.Debug("exporting traces", "protocol", target.protocol, "endpoint", target.endpoint)

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

// newMetricProvider returns nil when metrics have no endpoint.
func newMetricProvider(ctx context.Context, r *resource.Resource, config Config) (*metric.MeterProvider, error) {
	target, err := config.Otlp.Metrics.target()
	if errors.Is(err, ErrNoOtlpEndpoint) {
		slog.Debug("metrics are not exported, no endpoint configured")
		return nil, nil
	}
	exporter, err := newMetricExporter(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	slog.Debug("exporting metrics", "protocol", target.protocol, "endpoint", target.endpoint, "interval", config.metricInterval())

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(config.metricInterval()))),
		metric.WithResource(r),
	), nil
}
