// Package metrics exposes interception counters and event latencies to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crwsh"

const (
	statusOK    = "ok"
	statusError = "error"
)

var _ ports.Metrics = (*Collector)(nil)

// Collector records metrics on its own registry.
type Collector struct {
	registry      *prometheus.Registry
	fetchTotal    *prometheus.CounterVec
	eventsTotal   *prometheus.CounterVec
	eventDuration *prometheus.HistogramVec
}

// New creates a Collector with a fresh registry that also carries the Go runtime
// and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		fetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Intercepted requests by serving strategy and outcome",
		}, []string{"strategy", "outcome"}),
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Handled platform events by kind and status",
		}, []string{"event", "status"}),
		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Time spent handling platform events",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"event", "status"}),
	}
}

// ObserveFetch counts one intercepted request.
func (c *Collector) ObserveFetch(strategy domain.Strategy, outcome ports.Outcome) {
	c.fetchTotal.WithLabelValues(string(strategy), string(outcome)).Inc()
}

// ObserveEvent counts one handled event.
func (c *Collector) ObserveEvent(event string, err error) {
	c.eventsTotal.WithLabelValues(event, status(err != nil)).Inc()
}

// ObserveDuration records how long an event took.
func (c *Collector) ObserveDuration(event string, d time.Duration, failed bool) {
	c.eventDuration.WithLabelValues(event, status(failed)).Observe(d.Seconds())
}

// Registry returns the registry the collector records on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func status(failed bool) string {
	if failed {
		return statusError
	}
	return statusOK
}
