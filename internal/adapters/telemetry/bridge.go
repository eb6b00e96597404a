package telemetry

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanPrefix is the name prefix of spans started for platform events.
const SpanPrefix = "event."

// DurationObserver receives the duration of every finished event.
type DurationObserver interface {
	ObserveDuration(event string, d time.Duration, failed bool)
}

// Bridge implements sdktrace.SpanProcessor and forwards finished event spans to an observer.
type Bridge struct {
	observer DurationObserver
}

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// NewBridge returns a new Bridge.
func NewBridge(observer DurationObserver) *Bridge {
	return &Bridge{observer: observer}
}

// OnStart does nothing.
func (b *Bridge) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd reports spans named with SpanPrefix.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.observer == nil || !s.SpanContext().IsValid() {
		return
	}

	event, ok := strings.CutPrefix(s.Name(), SpanPrefix)
	if !ok {
		return
	}

	b.observer.ObserveDuration(event, s.EndTime().Sub(s.StartTime()), s.Status().Code == codes.Error)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(context.Context) error {
	return nil
}
