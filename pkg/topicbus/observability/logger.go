// Package observability provides logging, metrics, and tracing for topicbus.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// LogRouterStart logs the start of a distribution loop.
func LogRouterStart(logger *slog.Logger, runID string, topicCount int) {
	if logger == nil {
		return
	}
	logger.Info("router starting",
		slog.String("run_id", runID),
		slog.Int("topics", topicCount),
	)
}

// LogRouterStop logs the end of a distribution loop.
func LogRouterStop(logger *slog.Logger, runID, reason string, duration time.Duration, processed int64) {
	if logger == nil {
		return
	}
	logger.Info("router stopped",
		slog.String("run_id", runID),
		slog.String("reason", reason),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
		slog.Int64("envelopes", processed),
	)
}

// LogTopicRegistered logs a newly registered topic.
func LogTopicRegistered(logger *slog.Logger, topic string, capacity int) {
	if logger == nil {
		return
	}
	logger.Debug("topic registered",
		slog.String("topic", topic),
		slog.Int("capacity", capacity),
	)
}

// LogTopicReplaced logs a topic whose old channel was closed and replaced.
func LogTopicReplaced(logger *slog.Logger, topic string, capacity int) {
	if logger == nil {
		return
	}
	logger.Warn("topic replaced, existing subscribers closed",
		slog.String("topic", topic),
		slog.Int("capacity", capacity),
	)
}

// LogFanOutError logs a broadcast failure (non-fatal).
func LogFanOutError(logger *slog.Logger, envelopeID, topic string, err error) {
	if logger == nil {
		return
	}
	logger.Error("failed to send envelope to topic",
		slog.String("envelope_id", envelopeID),
		slog.String("topic", topic),
		slog.String("error", err.Error()),
	)
}

// LogEnvelopeDropped logs an envelope addressed to a topic that is not registered.
func LogEnvelopeDropped(logger *slog.Logger, envelopeID, topic string) {
	if logger == nil {
		return
	}
	logger.Debug("envelope dropped, topic not registered",
		slog.String("envelope_id", envelopeID),
		slog.String("topic", topic),
	)
}

// LogDeadLetterError logs a dead-letter journal failure (non-fatal).
func LogDeadLetterError(logger *slog.Logger, envelopeID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("dead letter not recorded",
		slog.String("envelope_id", envelopeID),
		slog.String("error", err.Error()),
	)
}
