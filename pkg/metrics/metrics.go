// Package metrics exposes Prometheus counters for checks and probes.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "phishjudge"

// Metrics owns its registry so that several instances (tests, scans) never
// collide on the default one. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ChecksTotal        *prometheus.CounterVec
	CheckDuration      prometheus.Histogram
	ProbeFailures      *prometheus.CounterVec
	ClassifierFailures prometheus.Counter
	BlacklistSize      prometheus.Gauge
	GraphFailures      prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ChecksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "URLs checked, by verdict label",
		}, []string{"label"}),
		CheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Time to extract features and classify one URL",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45},
		}),
		ProbeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_failures_total",
			Help:      "Degraded lookups during extraction, by probe",
		}, []string{"probe"}),
		ClassifierFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_failures_total",
			Help:      "Predictions that returned an error",
		}),
		BlacklistSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blacklist_domains",
			Help:      "Domains currently on the blacklist",
		}),
		GraphFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_failures_total",
			Help:      "Verdicts that could not be written to the graph",
		}),
	}
}

// ObserveCheck records one finished check. errs are "probe:cause" strings.
func (m *Metrics) ObserveCheck(label string, d time.Duration, errs []string) {
	if m == nil {
		return
	}
	m.ChecksTotal.WithLabelValues(label).Inc()
	m.CheckDuration.Observe(d.Seconds())
	for _, e := range errs {
		probe, _, _ := strings.Cut(e, ":")
		m.ProbeFailures.WithLabelValues(probe).Inc()
	}
}

func (m *Metrics) ClassifierFailed() {
	if m == nil {
		return
	}
	m.ClassifierFailures.Inc()
}

func (m *Metrics) GraphFailed() {
	if m == nil {
		return
	}
	m.GraphFailures.Inc()
}

func (m *Metrics) SetBlacklistSize(n int) {
	if m == nil {
		return
	}
	m.BlacklistSize.Set(float64(n))
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
