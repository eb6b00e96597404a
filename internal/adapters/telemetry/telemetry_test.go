package telemetry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/elkincvco/crwsh/internal/adapters/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupRecorder(t *testing.T, processors ...sdktrace.SpanProcessor) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	opts := []sdktrace.TracerProviderOption{sdktrace.WithSpanProcessor(sr)}
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func TestOTelSpan_SetAttribute(t *testing.T) {
	t.Parallel()

	sr, tp := setupRecorder(t)
	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")

	_, span := tracer.Start(context.Background(), "event.fetch")
	span.SetAttribute("crwsh.strategy", "cache-first")
	span.SetAttribute("http.status", 200)
	span.SetAttribute("bytes", int64(512))
	span.SetAttribute("ratio", 0.5)
	span.SetAttribute("cached", true)
	span.SetAttribute("partitions", []string{"a", "b"})
	span.SetAttribute("duration", time.Second)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "event.fetch", spans[0].Name())
	assert.ElementsMatch(t, []attribute.KeyValue{
		attribute.String("crwsh.strategy", "cache-first"),
		attribute.Int("http.status", 200),
		attribute.Int64("bytes", 512),
		attribute.Float64("ratio", 0.5),
		attribute.Bool("cached", true),
		attribute.StringSlice("partitions", []string{"a", "b"}),
		attribute.String("duration", "1s"),
	}, spans[0].Attributes())
}

func TestOTelSpan_RecordError(t *testing.T) {
	t.Parallel()

	sr, tp := setupRecorder(t)
	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")

	_, span := tracer.Start(context.Background(), "event.push")
	span.RecordError(errors.New("tray unavailable"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "tray unavailable", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

type recordedDuration struct {
	event  string
	failed bool
}

type durationRecorder struct {
	mu   sync.Mutex
	seen []recordedDuration
}

func (r *durationRecorder) ObserveDuration(event string, d time.Duration, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d >= 0 {
		r.seen = append(r.seen, recordedDuration{event: event, failed: failed})
	}
}

func TestBridge_ForwardsEventSpans(t *testing.T) {
	t.Parallel()

	rec := &durationRecorder{}
	_, tp := setupRecorder(t, telemetry.NewBridge(rec))
	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")

	_, ok := tracer.Start(context.Background(), "event.sync")
	ok.End()

	_, failed := tracer.Start(context.Background(), "event.install")
	failed.RecordError(errors.New("manifest fetch failed"))
	failed.End()

	_, other := tracer.Start(context.Background(), "config.reload")
	other.End()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []recordedDuration{
		{event: "sync"},
		{event: "install", failed: true},
	}, rec.seen)
}

func TestNoOpTracer(t *testing.T) {
	t.Parallel()

	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	newCtx, span := tracer.Start(ctx, "event.fetch")
	assert.Equal(t, ctx, newCtx)
	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	span.End()
}
