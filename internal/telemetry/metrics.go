// Package telemetry defines the bridge's OpenTelemetry instruments and
// installs the OTLP exporters. Until Setup is given an endpoint the global
// no-op providers are used.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "safety-lms/backend/bridge"

// Drop reasons recorded on bridge.events.dropped.
const (
	ReasonMalformed    = "malformed"
	ReasonUnresolvable = "unresolvable"
	ReasonBusy         = "busy"
	ReasonMismatch     = "mismatch"
	ReasonUnknown      = "unknown_event"
)

// Degraded paths recorded on bridge.degraded.
const (
	DegradedPlaceholder   = "placeholder_content"
	DegradedLocalScoring  = "local_scoring"
	DegradedProgressWrite = "progress_report"
)

// Metrics holds the bridge counters.
type Metrics struct {
	received metric.Int64Counter
	dropped  metric.Int64Counter
	closed   metric.Int64Counter
	degraded metric.Int64Counter
}

// NewMetrics creates instruments from the global MeterProvider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFromMeter(otel.Meter(meterName))
}

// NewMetricsFromMeter creates instruments from the given meter.
func NewMetricsFromMeter(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.received, err = meter.Int64Counter("bridge.events.received",
		metric.WithDescription("Runtime events received by the scene bridge")); err != nil {
		return nil, err
	}
	if m.dropped, err = meter.Int64Counter("bridge.events.dropped",
		metric.WithDescription("Runtime events dropped without effect")); err != nil {
		return nil, err
	}
	if m.closed, err = meter.Int64Counter("bridge.sessions.closed",
		metric.WithDescription("Workflow sessions reaching a terminal state")); err != nil {
		return nil, err
	}
	if m.degraded, err = meter.Int64Counter("bridge.degraded",
		metric.WithDescription("Operations that completed on a fallback path")); err != nil {
		return nil, err
	}
	return &m, nil
}

// EventReceived counts an inbound runtime event.
func (m *Metrics) EventReceived(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.received.Add(ctx, 1, metric.WithAttributes(attribute.String("event", name)))
}

// EventDropped counts an event that had no effect.
func (m *Metrics) EventDropped(ctx context.Context, name, reason string) {
	if m == nil {
		return
	}
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("event", name), attribute.String("reason", reason)))
}

// SessionClosed counts a terminal transition.
func (m *Metrics) SessionClosed(ctx context.Context, kind, status string) {
	if m == nil {
		return
	}
	m.closed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind), attribute.String("status", status)))
}

// Degraded counts a fallback.
func (m *Metrics) Degraded(ctx context.Context, path string) {
	if m == nil {
		return
	}
	m.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}
