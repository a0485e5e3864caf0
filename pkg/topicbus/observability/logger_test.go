package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger returns a debug-level JSON logger writing into buf.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var m map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &m))
	return m
}

func TestLogHelpers(t *testing.T) {
	tests := []struct {
		name  string
		log   func(*slog.Logger)
		level string
		msg   string
		attrs map[string]any
	}{
		{
			name:  "router start",
			log:   func(l *slog.Logger) { LogRouterStart(l, "run-1", 3) },
			level: "INFO",
			msg:   "router starting",
			attrs: map[string]any{"run_id": "run-1", "topics": float64(3)},
		},
		{
			name:  "router stop",
			log:   func(l *slog.Logger) { LogRouterStop(l, "run-1", "stop_signal", 2*time.Second, 7) },
			level: "INFO",
			msg:   "router stopped",
			attrs: map[string]any{"reason": "stop_signal", "duration_ms": float64(2000), "envelopes": float64(7)},
		},
		{
			name:  "topic registered",
			log:   func(l *slog.Logger) { LogTopicRegistered(l, "orders", 4) },
			level: "DEBUG",
			msg:   "topic registered",
			attrs: map[string]any{"topic": "orders", "capacity": float64(4)},
		},
		{
			name:  "topic replaced",
			log:   func(l *slog.Logger) { LogTopicReplaced(l, "orders", 8) },
			level: "WARN",
			msg:   "topic replaced, existing subscribers closed",
			attrs: map[string]any{"topic": "orders"},
		},
		{
			name:  "fan-out error",
			log:   func(l *slog.Logger) { LogFanOutError(l, "env-1", "alerts", errors.New("no subscribers")) },
			level: "ERROR",
			msg:   "failed to send envelope to topic",
			attrs: map[string]any{"envelope_id": "env-1", "topic": "alerts", "error": "no subscribers"},
		},
		{
			name:  "envelope dropped",
			log:   func(l *slog.Logger) { LogEnvelopeDropped(l, "env-2", "billing") },
			level: "DEBUG",
			msg:   "envelope dropped, topic not registered",
			attrs: map[string]any{"envelope_id": "env-2", "topic": "billing"},
		},
		{
			name:  "dead letter error",
			log:   func(l *slog.Logger) { LogDeadLetterError(l, "env-3", errors.New("disk full")) },
			level: "WARN",
			msg:   "dead letter not recorded",
			attrs: map[string]any{"envelope_id": "env-3", "error": "disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(captureLogger(&buf))

			record := lastRecord(t, &buf)
			assert.Equal(t, tt.level, record["level"])
			assert.Equal(t, tt.msg, record["msg"])
			for k, v := range tt.attrs {
				assert.Equal(t, v, record[k], "attribute %s", k)
			}
		})
	}
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogRouterStart(nil, "run", 1)
		LogRouterStop(nil, "run", "ingress_closed", time.Second, 0)
		LogTopicRegistered(nil, "t", 1)
		LogTopicReplaced(nil, "t", 1)
		LogFanOutError(nil, "id", "t", errors.New("x"))
		LogEnvelopeDropped(nil, "id", "t")
		LogDeadLetterError(nil, "id", errors.New("x"))
	})
}
