// Package metrics holds the Prometheus collectors of the liquidity gate.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "liquidity_gate"

// Metrics groups the collectors. Each instance owns its registry so tests
// can create as many as they need.
type Metrics struct {
	Registry *prometheus.Registry

	Evaluations        *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	SnapshotLoad       *prometheus.HistogramVec
	SnapshotRows       *prometheus.GaugeVec
	DataWarnings       prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	ToolCalls          *prometheus.CounterVec
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Liquidity impact evaluations by outcome (RELEASE, HOLD or an error code).",
		}, []string{"outcome"}),
		EvaluationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent in one evaluation including the snapshot load.",
			Buckets:   prometheus.DefBuckets,
		}),
		SnapshotLoad: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "load_duration_seconds",
			Help:      "Time spent loading the input snapshot.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"source"}),
		SnapshotRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "rows",
			Help:      "Row counts of the most recently loaded snapshot.",
		}, []string{"set"}),
		DataWarnings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_data_warnings_total",
			Help:      "Evaluations that assumed a zero balance or buffer.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		ToolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Tool invocations by method and gRPC code.",
		}, []string{"method", "code"}),
	}
}

// ObserveEvaluation records one finished evaluation.
func (m *Metrics) ObserveEvaluation(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(outcome).Inc()
	m.EvaluationDuration.Observe(elapsed.Seconds())
}

// ObserveSnapshot records the load time and row counts of a snapshot.
func (m *Metrics) ObserveSnapshot(source string, elapsed time.Duration, ledger, balances, buffers int) {
	if m == nil {
		return
	}
	m.SnapshotLoad.WithLabelValues(source).Observe(elapsed.Seconds())
	m.SnapshotRows.WithLabelValues("ledger").Set(float64(ledger))
	m.SnapshotRows.WithLabelValues("balances").Set(float64(balances))
	m.SnapshotRows.WithLabelValues("buffers").Set(float64(buffers))
}

// ObserveWarnings counts an evaluation that ran on assumed reference data.
func (m *Metrics) ObserveWarnings(n int) {
	if m == nil || n == 0 {
		return
	}
	m.DataWarnings.Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// ObserveToolCall records one gRPC tool invocation.
func (m *Metrics) ObserveToolCall(method, code string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(method, code).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
