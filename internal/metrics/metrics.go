// Package metrics exposes harvest progress as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/harvester/pkg/harvest"
)

const namespace = "harvester"

// Metrics records gather and import outcomes. It implements
// harvest.Observer.
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched   *prometheus.CounterVec
	RecordsFetched *prometheus.CounterVec
	GatherFailures *prometheus.CounterVec
	Operations     *prometheus.CounterVec
	CycleDuration  *prometheus.HistogramVec
	LastSuccess    *prometheus.GaugeVec
}

var _ harvest.Observer = (*Metrics)(nil)

// New registers the harvester metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PagesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_fetched_total",
				Help:      "Total number of feed pages fetched",
			},
			[]string{"source"},
		),
		RecordsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_fetched_total",
				Help:      "Total number of dataset records read from feed pages",
			},
			[]string{"source"},
		),
		GatherFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gather_failures_total",
				Help:      "Total number of aborted gather phases",
			},
			[]string{"source"},
		),
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of imported operations by kind and status",
			},
			[]string{"source", "kind", "status"},
		),
		CycleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of complete harvest cycles",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"source", "status"},
		),
		LastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last completed harvest cycle",
			},
			[]string{"source"},
		),
	}
}

// PageFetched implements harvest.Observer.
func (m *Metrics) PageFetched(sourceID string, _ int, records int) {
	m.PagesFetched.WithLabelValues(sourceID).Inc()
	m.RecordsFetched.WithLabelValues(sourceID).Add(float64(records))
}

// GatherFailed implements harvest.Observer.
func (m *Metrics) GatherFailed(sourceID string, _ error) {
	m.GatherFailures.WithLabelValues(sourceID).Inc()
}

// Imported implements harvest.Observer.
func (m *Metrics) Imported(sourceID string, kind harvest.OperationKind, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.Operations.WithLabelValues(sourceID, string(kind), status).Inc()
}

// CycleFinished records the outcome of a complete cycle.
func (m *Metrics) CycleFinished(r *harvest.Result) {
	var took time.Duration
	if r.FinishedAt != nil {
		took = r.FinishedAt.Sub(r.StartedAt)
	}
	m.CycleDuration.WithLabelValues(r.SourceID, string(r.Status)).Observe(took.Seconds())
	if r.Status == harvest.StatusCompleted && r.FinishedAt != nil {
		m.LastSuccess.WithLabelValues(r.SourceID).Set(float64(r.FinishedAt.Unix()))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
