// Package worker dispatches platform events to their handlers and keeps the work they
// leave behind alive until it completes.
package worker

import (
	"context"
	"fmt"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/elkincvco/crwsh/internal/engine/bridge"
	"github.com/elkincvco/crwsh/internal/engine/classifier"
	"github.com/elkincvco/crwsh/internal/engine/lifecycle"
	"github.com/elkincvco/crwsh/internal/engine/lifetime"
	"github.com/elkincvco/crwsh/internal/engine/strategy"
	"go.trai.ch/zerr"
)

// Reply is what a handler produced for its event. Only the fields relevant to the
// event kind are set.
type Reply struct {
	// Strategy and Result are set for fetch events.
	Strategy domain.Strategy
	Result   *strategy.Result
	// Notification is the notification shown for a push event, if any.
	Notification *domain.Notification
	// Window is the window focused or opened for a click event, if any.
	Window *domain.Window
	// Epoch is the epoch resulting from an activate event.
	Epoch *domain.Epoch
	// Handled reports whether a sync or message event was recognized.
	Handled bool
	// Pending is work that continues after the reply. It is already tracked.
	Pending *lifetime.Pending
}

// Components are the handlers the worker dispatches to.
type Components struct {
	Classifier    *classifier.Classifier
	Engine        *strategy.Engine
	Lifecycle     *lifecycle.Controller
	Notifications *bridge.Notifications
	Sync          *bridge.Sync
	Control       *bridge.Control
}

// Worker is the event dispatcher of the interception layer.
type Worker struct {
	c       Components
	tracker *lifetime.Tracker
	tracer  ports.Tracer
	metrics ports.Metrics
	logger  ports.Logger
}

// New creates a Worker.
func New(c Components, tracer ports.Tracer, metrics ports.Metrics, logger ports.Logger) *Worker {
	w := &Worker{
		c:       c,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
	w.tracker = lifetime.NewTracker(func(name string, err error) {
		logger.Warn(name + ": " + err.Error())
	})
	return w
}

// Handle dispatches ev to its handler.
func (w *Worker) Handle(ctx context.Context, ev Event) (Reply, error) {
	ctx, span := w.tracer.Start(ctx, "event."+ev.Kind())
	defer span.End()

	reply, err := w.dispatch(ctx, span, ev)
	if err != nil {
		span.RecordError(err)
	}
	w.metrics.ObserveEvent(ev.Kind(), err)
	w.tracker.Track(reply.Pending)
	return reply, err
}

// Drain waits until every pending handle completes or ctx is done.
func (w *Worker) Drain(ctx context.Context) error {
	return w.tracker.Drain(ctx)
}

// Pending returns the number of handles still running.
func (w *Worker) Pending() int {
	return w.tracker.Running()
}

//nolint:cyclop // one case per event kind
func (w *Worker) dispatch(ctx context.Context, span ports.Span, ev Event) (Reply, error) {
	switch ev := ev.(type) {
	case FetchEvent:
		return w.fetch(ctx, span, ev)
	case InstallEvent:
		return w.install(ctx, ev), nil
	case ActivateEvent:
		epoch, err := w.c.Lifecycle.Activate(ctx)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Epoch: &epoch}, nil
	case PushEvent:
		n, err := w.c.Notifications.Push(ctx, ev.Payload)
		return Reply{Notification: n}, err
	case NotificationClickEvent:
		win, err := w.c.Notifications.Click(ctx, ev.Click)
		return Reply{Window: win}, err
	case SyncEvent:
		return w.sync(ctx, ev), nil
	case MessageEvent:
		handled, err := w.c.Control.Message(ctx, ev.Data)
		return Reply{Handled: handled}, err
	default:
		return Reply{}, zerr.With(zerr.New("unknown event"), "kind", fmt.Sprintf("%T", ev))
	}
}

func (w *Worker) fetch(ctx context.Context, span ports.Span, ev FetchEvent) (Reply, error) {
	rule, _ := w.c.Classifier.Match(ev.Request)

	span.SetAttribute("http.method", ev.Request.Method)
	span.SetAttribute("http.url", ev.Request.URL.String())
	span.SetAttribute("crwsh.strategy", string(rule.Strategy))
	span.SetAttribute("crwsh.rule", rule.Name)

	res, err := w.c.Engine.Serve(ctx, rule.Strategy, ev.Request)
	if err != nil {
		w.metrics.ObserveFetch(rule.Strategy, ports.OutcomeError)
		return Reply{Strategy: rule.Strategy}, err
	}

	w.metrics.ObserveFetch(rule.Strategy, res.Outcome)
	return Reply{Strategy: rule.Strategy, Result: res, Pending: res.Pending}, nil
}

// install runs in the background: the reply only acknowledges the request.
func (w *Worker) install(ctx context.Context, ev InstallEvent) Reply {
	bctx := context.WithoutCancel(ctx)
	pending := lifetime.Go("install version "+ev.Version, func() error {
		_, err := w.c.Lifecycle.Install(bctx, ev.App, ev.Version)
		return err
	})
	return Reply{Pending: pending}
}

// sync runs the reconciliation job in the background so the event is acknowledged
// right away.
func (w *Worker) sync(ctx context.Context, ev SyncEvent) Reply {
	if ev.Request.Tag != w.c.Sync.Tag() {
		return Reply{}
	}
	bctx := context.WithoutCancel(ctx)
	pending := lifetime.Go("sync "+ev.Request.Tag, func() error {
		w.c.Sync.Handle(bctx, ev.Request)
		return nil
	})
	return Reply{Handled: true, Pending: pending}
}
