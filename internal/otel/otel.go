// Package otel exports remote control traffic as OpenTelemetry traces and
// counters over OTLP/HTTP.
//
// The collector is configured in the config file or with
// OTEL_EXPORTER_OTLP_ENDPOINT. When none is set, Init hands out no-op
// instruments and nothing leaves the process.
package otel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	serviceName           = "kitty-mux"
	defaultMetricInterval = 15 * time.Second
)

// Version is reported as service.version; cmd sets it from its own Version.
var Version = "dev"

// OTELConfig selects the collector.
type OTELConfig struct {
	Endpoint string // base URL, e.g. "http://localhost:4318"
	Headers  string // OTEL_EXPORTER_OTLP_HEADERS syntax: "k=v,k2=v2"

	// MetricInterval is the export period; zero means 15s.
	MetricInterval time.Duration
}

// Telemetry bundles the tracer and counters handed to the engine. The
// providers are nil when nothing is exported.
type Telemetry struct {
	Tracer  trace.Tracer
	Metrics *Metrics

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// Disabled returns telemetry with a no-op tracer and nil metrics.
func Disabled() *Telemetry {
	return &Telemetry{Tracer: noop.NewTracerProvider().Tracer(serviceName)}
}

// Init connects the exporters for cfg.Endpoint and registers them globally.
// Without an endpoint the returned telemetry is Disabled plus no-op counters.
func Init(ctx context.Context, cfg OTELConfig) (*Telemetry, error) {
	t := Disabled()
	if cfg.Endpoint != "" {
		if err := t.export(ctx, cfg); err != nil {
			return nil, err
		}
	}

	m, err := NewMetrics()
	if err != nil {
		t.Shutdown(ctx)
		return nil, fmt.Errorf("otel metrics: %w", err)
	}
	t.Metrics = m
	return t, nil
}

func (t *Telemetry) export(ctx context.Context, cfg OTELConfig) error {
	c, err := parseCollector(cfg)
	if err != nil {
		return err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(Version),
		),
		resource.WithHost(),
	)
	if err != nil {
		return fmt.Errorf("otel resource: %w", err)
	}

	spans, err := otlptracehttp.New(ctx, c.traceOptions()...)
	if err != nil {
		return fmt.Errorf("otel trace exporter: %w", err)
	}
	counters, err := otlpmetrichttp.New(ctx, c.metricOptions()...)
	if err != nil {
		return errors.Join(fmt.Errorf("otel metric exporter: %w", err), spans.Shutdown(ctx))
	}

	interval := cfg.MetricInterval
	if interval <= 0 {
		interval = defaultMetricInterval
	}
	t.tp = sdktrace.NewTracerProvider(sdktrace.WithBatcher(spans), sdktrace.WithResource(res))
	t.mp = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(counters, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(t.tp)
	otel.SetMeterProvider(t.mp)
	t.Tracer = t.tp.Tracer(serviceName)
	return nil
}

// Enabled reports whether anything is exported.
func (t *Telemetry) Enabled() bool {
	return t != nil && t.tp != nil
}

// Shutdown flushes pending spans and counters. Export errors are dropped:
// the switcher is exiting and has no one to report them to.
func (t *Telemetry) Shutdown(ctx context.Context) {
	if t == nil {
		return
	}
	if t.tp != nil {
		_ = t.tp.Shutdown(ctx)
	}
	if t.mp != nil {
		_ = t.mp.Shutdown(ctx)
	}
}

// collector is a parsed OTLP/HTTP base URL. The exporters append the
// per-signal paths /v1/traces and /v1/metrics to path.
type collector struct {
	host     string
	path     string
	insecure bool
	headers  map[string]string
}

func parseCollector(cfg OTELConfig) (collector, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return collector{}, fmt.Errorf("otel: invalid endpoint URL %q: %w", cfg.Endpoint, err)
	}
	if u.Host == "" {
		return collector{}, fmt.Errorf("otel: endpoint %q has no host", cfg.Endpoint)
	}
	return collector{
		host:     u.Host,
		path:     strings.TrimRight(u.Path, "/"),
		insecure: u.Scheme == "http",
		headers:  parseHeaders(cfg.Headers),
	}, nil
}

func (c collector) traceOptions() []otlptracehttp.Option {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(c.host),
		otlptracehttp.WithURLPath(c.path + "/v1/traces"),
	}
	if c.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(c.headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(c.headers))
	}
	return opts
}

func (c collector) metricOptions() []otlpmetrichttp.Option {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(c.host),
		otlpmetrichttp.WithURLPath(c.path + "/v1/metrics"),
	}
	if c.insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(c.headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(c.headers))
	}
	return opts
}

// parseHeaders splits "k=v,k2=v2". Pairs without a key are skipped; values
// may contain '='.
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(val)
	}
	return headers
}
