package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "kitty-mux"

// Metrics holds the metric instruments for the remote control engine.
// All counters are cumulative and safe for concurrent use. A nil *Metrics
// records nothing.
type Metrics struct {
	// Remote control traffic, partitioned by command.
	Requests  metric.Int64Counter
	Responses metric.Int64Counter
	Errors    metric.Int64Counter

	// Preview captures stored, and captures skipped because the screen
	// contents were unchanged.
	PreviewsCached  metric.Int64Counter
	PreviewsDeduped metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Requests, err = meter.Int64Counter("rc.requests",
		metric.WithDescription("Remote control requests sent to kitty"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	m.Responses, err = meter.Int64Counter("rc.responses",
		metric.WithDescription("Remote control responses received from kitty"),
		metric.WithUnit("{response}"))
	if err != nil {
		return nil, err
	}

	m.Errors, err = meter.Int64Counter("rc.errors",
		metric.WithDescription("Protocol failures (error responses, unexpected responses, closed channel)"))
	if err != nil {
		return nil, err
	}

	m.PreviewsCached, err = meter.Int64Counter("previews.cached",
		metric.WithDescription("Window previews parsed and stored"))
	if err != nil {
		return nil, err
	}

	m.PreviewsDeduped, err = meter.Int64Counter("previews.deduped",
		metric.WithDescription("Window captures identical to the cached preview"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRequest records one request sent.
func (m *Metrics) RecordRequest(ctx context.Context, cmd string) {
	if m == nil {
		return
	}
	m.Requests.Add(ctx, 1, metric.WithAttributes(attribute.String("rc.command", cmd)))
}

// RecordResponse records one response received for cmd.
func (m *Metrics) RecordResponse(ctx context.Context, cmd string, ok bool) {
	if m == nil {
		return
	}
	m.Responses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rc.command", cmd),
		attribute.Bool("rc.ok", ok),
	))
}

// RecordError records a protocol failure of the given kind.
func (m *Metrics) RecordError(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.Errors.Add(ctx, 1, metric.WithAttributes(attribute.String("error.kind", kind)))
}

// RecordPreview records a stored preview, or a skipped one when deduped.
func (m *Metrics) RecordPreview(ctx context.Context, deduped bool) {
	if m == nil {
		return
	}
	if deduped {
		m.PreviewsDeduped.Add(ctx, 1)
		return
	}
	m.PreviewsCached.Add(ctx, 1)
}
