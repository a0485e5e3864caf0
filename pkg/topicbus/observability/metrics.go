package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Drop reasons recorded by RecordDrop.
const (
	DropUnknownTopic    = "unknown_topic"
	DropNoSubscribers   = "no_subscribers"
	DropBroadcastFailed = "broadcast_failed"
)

// MetricsRecorder records topicbus metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordIngress records an envelope taken off the ingress queue.
	RecordIngress(ctx context.Context, kind string)

	// RecordDelivery records a successful broadcast to a topic.
	RecordDelivery(ctx context.Context, topic string, receivers int)

	// RecordDrop records an envelope that reached no subscriber.
	RecordDrop(ctx context.Context, topic, reason string)

	// RecordRun records the end of a distribution loop.
	RecordRun(ctx context.Context, reason string, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	ingress    metric.Int64Counter
	deliveries metric.Int64Counter
	fanout     metric.Int64Histogram
	drops      metric.Int64Counter
	runs       metric.Int64Counter
	runLatency metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the default OTel metrics instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("topicbus")

	ingress, err := meter.Int64Counter("topicbus.ingress.envelopes",
		metric.WithDescription("Number of envelopes received from the ingress queue"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("topicbus.topic.deliveries",
		metric.WithDescription("Number of envelopes broadcast to a topic"),
	)
	if err != nil {
		return nil, err
	}

	fanout, err := meter.Int64Histogram("topicbus.topic.fanout",
		metric.WithDescription("Receivers reached per broadcast"),
	)
	if err != nil {
		return nil, err
	}

	drops, err := meter.Int64Counter("topicbus.topic.drops",
		metric.WithDescription("Number of envelopes that reached no subscriber"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("topicbus.router.runs",
		metric.WithDescription("Number of completed distribution loops"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("topicbus.router.run_ms",
		metric.WithDescription("Distribution loop lifetime in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		ingress:    ingress,
		deliveries: deliveries,
		fanout:     fanout,
		drops:      drops,
		runs:       runs,
		runLatency: runLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordIngress records an ingress envelope.
func (m *otelMetrics) RecordIngress(ctx context.Context, kind string) {
	m.ingress.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordDelivery records a broadcast.
func (m *otelMetrics) RecordDelivery(ctx context.Context, topic string, receivers int) {
	attrs := metric.WithAttributes(attribute.String("topic", topic))
	m.deliveries.Add(ctx, 1, attrs)
	m.fanout.Record(ctx, int64(receivers), attrs)
}

// RecordDrop records an undelivered envelope.
func (m *otelMetrics) RecordDrop(ctx context.Context, topic, reason string) {
	m.drops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("reason", reason),
	))
}

// RecordRun records a finished distribution loop.
func (m *otelMetrics) RecordRun(ctx context.Context, reason string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("reason", reason))
	m.runs.Add(ctx, 1, attrs)
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}
