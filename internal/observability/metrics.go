package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis service.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration     prometheus.Histogram
	AnalysisRunning prometheus.Gauge

	// Dataset metrics.
	RowsLoaded  *prometheus.CounterVec // labels: dataset={sensor,infra,ride}
	RowsSkipped *prometheus.CounterVec // labels: dataset={sensor,infra,ride}

	// Result metrics.
	HotspotsDetected  prometheus.Gauge
	AnomaliesDetected prometheus.Gauge

	// AI insight metrics.
	InsightRequests *prometheus.CounterVec // labels: outcome={success,error,fallback}
	InsightCache    *prometheus.CounterVec // labels: result={hit,miss}
	InsightDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_safety",
			Name:      "analysis_runs_total",
			Help:      "Completed analysis runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "road_safety",
			Name:      "analysis_run_duration_seconds",
			Help:      "Duration of a complete load-detect-match-trend cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		AnalysisRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "road_safety",
			Name:      "analysis_running",
			Help:      "1 while an analysis run is in progress, 0 otherwise.",
		}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_safety",
			Name:      "rows_loaded_total",
			Help:      "CSV rows successfully parsed, by dataset.",
		}, []string{"dataset"}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_safety",
			Name:      "rows_skipped_total",
			Help:      "Malformed CSV rows skipped during load, by dataset.",
		}, []string{"dataset"}),
		HotspotsDetected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "road_safety",
			Name:      "hotspots_detected",
			Help:      "Hotspots found by the most recent analysis run.",
		}),
		AnomaliesDetected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "road_safety",
			Name:      "trend_anomalies_detected",
			Help:      "Anomalous trend buckets flagged by the most recent run.",
		}),
		InsightRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_safety",
			Name:      "insight_requests_total",
			Help:      "AI insight generations by outcome.",
		}, []string{"outcome"}),
		InsightCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_safety",
			Name:      "insight_cache_total",
			Help:      "Insight cache lookups by result.",
		}, []string{"result"}),
		InsightDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "road_safety",
			Name:      "insight_request_duration_seconds",
			Help:      "AI insight API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.AnalysisRunning,
		m.RowsLoaded,
		m.RowsSkipped,
		m.HotspotsDetected,
		m.AnomaliesDetected,
		m.InsightRequests,
		m.InsightCache,
		m.InsightDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "road_safety", Name: "analysis_runs_total"}, []string{"outcome"}),
		RunDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "road_safety", Name: "analysis_run_duration_seconds"}),
		AnalysisRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "road_safety", Name: "analysis_running"}),
		RowsLoaded:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "road_safety", Name: "rows_loaded_total"}, []string{"dataset"}),
		RowsSkipped:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "road_safety", Name: "rows_skipped_total"}, []string{"dataset"}),
		HotspotsDetected:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "road_safety", Name: "hotspots_detected"}),
		AnomaliesDetected: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "road_safety", Name: "trend_anomalies_detected"}),
		InsightRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "road_safety", Name: "insight_requests_total"}, []string{"outcome"}),
		InsightCache:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "road_safety", Name: "insight_cache_total"}, []string{"result"}),
		InsightDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "road_safety", Name: "insight_request_duration_seconds"}),
	}
}
