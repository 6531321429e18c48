// Package metrics provides Prometheus metrics for the analysis pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analyzer.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	RowsProcessed    prometheus.Counter
	RowsDropped      *prometheus.CounterVec

	// Cluster metrics
	ClustersDetected prometheus.Counter
	ClusterRiskFlags *prometheus.CounterVec

	// Label metrics
	LabelEntries *prometheus.GaugeVec

	// Persistence metrics
	PersistErrors prometheus.Counter
}

// NewMetrics creates a Metrics instance registered on its own registry
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_analyzer"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "analyses_total",
			Help:      "Total number of analysis runs by status",
		}, []string{"status"}),
		AnalysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of analysis stages in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage"}),
		RowsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_processed_total",
			Help:      "Total number of transaction rows labeled",
		}),
		RowsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_dropped_total",
			Help:      "Total number of rows removed by cleaning, by reason",
		}, []string{"reason"}),

		ClustersDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "detected_total",
			Help:      "Total number of clusters reported",
		}),
		ClusterRiskFlags: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "risk_flags_total",
			Help:      "Total number of risk flags raised on clusters",
		}, []string{"flag"}),

		LabelEntries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "labels",
			Name:      "entries",
			Help:      "Number of loaded label entries by source",
		}, []string{"source"}),

		PersistErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "errors_total",
			Help:      "Total number of failed result writes",
		}),
	}
}

// Handler returns the HTTP handler serving this instance's metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordAnalysis records the outcome of one run
func (m *Metrics) RecordAnalysis(status string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(status).Inc()
}

// ObserveStage records how long a pipeline stage took
func (m *Metrics) ObserveStage(stage string, started time.Time) {
	if m == nil {
		return
	}
	m.AnalysisDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// RecordRows records labeled rows
func (m *Metrics) RecordRows(n int) {
	if m == nil {
		return
	}
	m.RowsProcessed.Add(float64(n))
}

// RecordDropped records rows removed by cleaning
func (m *Metrics) RecordDropped(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordClusters records the clusters and risk flags of one run
func (m *Metrics) RecordClusters(count int, flags []string) {
	if m == nil {
		return
	}
	m.ClustersDetected.Add(float64(count))
	for _, f := range flags {
		m.ClusterRiskFlags.WithLabelValues(f).Inc()
	}
}

// SetLabelEntries records how many entries a label source holds
func (m *Metrics) SetLabelEntries(source string, n int) {
	if m == nil {
		return
	}
	m.LabelEntries.WithLabelValues(source).Set(float64(n))
}

// RecordPersistError records a failed result write
func (m *Metrics) RecordPersistError() {
	if m == nil {
		return
	}
	m.PersistErrors.Inc()
}
