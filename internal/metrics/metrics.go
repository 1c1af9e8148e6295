// Package metrics exposes controller activity in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "liftlights"

// Metrics holds the collectors updated by the cycle controller.
type Metrics struct {
	registry      *prometheus.Registry
	cycles        *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	ledWrites     *prometheus.CounterVec
	liftStatus    *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge
	daytime       prometheus.Gauge
}

// New registers all collectors on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Controller cycles by outcome.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of status fetches, successful or not.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ledWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "led_writes_total",
			Help:      "Per-entry apply results.",
		}, []string{"result"}),
		liftStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lift_status",
			Help:      "1 for the status each lift last reported.",
		}, []string{"lift", "status"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_update_timestamp_seconds",
			Help:      "Unix time of the last cycle that updated the strip.",
		}),
		daytime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operating_window_open",
			Help:      "1 while inside the operating window.",
		}),
	}

	reg.MustRegister(
		m.cycles,
		m.fetchDuration,
		m.ledWrites,
		m.liftStatus,
		m.lastSuccess,
		m.daytime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// CycleCompleted counts one cycle.
func (m *Metrics) CycleCompleted(outcome string, daytime bool) {
	m.cycles.WithLabelValues(outcome).Inc()
	if daytime {
		m.daytime.Set(1)
	} else {
		m.daytime.Set(0)
	}
}

// FetchObserved records how long a fetch took.
func (m *Metrics) FetchObserved(d time.Duration) {
	m.fetchDuration.Observe(d.Seconds())
}

// LEDWrite counts one apply result.
func (m *Metrics) LEDWrite(result string) {
	m.ledWrites.WithLabelValues(result).Inc()
}

// LiftStatus moves the lift's gauge from its previous status to the new one.
func (m *Metrics) LiftStatus(lift, previous, current string) {
	if previous != "" && previous != current {
		m.liftStatus.DeleteLabelValues(lift, previous)
	}
	m.liftStatus.WithLabelValues(lift, current).Set(1)
}

// Updated stamps the last successful strip update.
func (m *Metrics) Updated(t time.Time) {
	m.lastSuccess.Set(float64(t.Unix()))
}

// CountDroppedEvents exports the number of events lost by slow SSE clients,
// read from dropped at scrape time.
func (m *Metrics) CountDroppedEvents(dropped func() uint64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sse_events_dropped_total",
		Help:      "Events not delivered to a slow SSE client.",
	}, func() float64 { return float64(dropped()) }))
}
