package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest creates a test tracer provider with an in-memory span recorder.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	// Update the package-level tracer
	tracer = otel.Tracer("topicbus")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}

	return exporter, cleanup
}

func TestStartRunSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	_, span := NewSpanManager().StartRunSpan(context.Background(), "run-42", 2)
	require.NotNil(t, span)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Equal(t, "topicbus.router.run", s.Name)
	assert.Contains(t, s.Attributes, attribute.String("run.id", "run-42"))
	assert.Contains(t, s.Attributes, attribute.Int("router.topics", 2))
}

func TestEndSpanWithError(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	t.Run("records error status", func(t *testing.T) {
		exporter.Reset()
		_, span := StartRunSpan(context.Background(), "run-err", 1)
		EndSpanWithError(span, errors.New("boom"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "boom", spans[0].Status.Description)
	})

	t.Run("records ok status", func(t *testing.T) {
		exporter.Reset()
		_, span := StartRunSpan(context.Background(), "run-ok", 1)
		EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
	})

	t.Run("nil span is ignored", func(t *testing.T) {
		assert.NotPanics(t, func() { EndSpanWithError(nil, errors.New("x")) })
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	ctx, span := StartRunSpan(context.Background(), "run-ev", 1)
	NewSpanManager().AddSpanEvent(ctx, "envelope.dropped", attribute.String("topic", "billing"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "envelope.dropped", spans[0].Events[0].Name)
	assert.Contains(t, spans[0].Events[0].Attributes, attribute.String("topic", "billing"))
}

func TestAddSpanEvent_NoSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		AddSpanEvent(context.Background(), "orphan")
	})
}
