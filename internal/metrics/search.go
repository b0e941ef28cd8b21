package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search, tuning and indexing metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of hybrid search requests",
		},
		[]string{"status"},
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_stage_duration_seconds",
			Help:      "Hybrid search latency by stage (dense, lexical, total)",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"},
	)

	SearchCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_candidates",
			Help:      "Candidates returned per side before blending",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"side"},
	)

	BlendWeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blend_weight",
			Help:      "Live blend weight per component",
		},
		[]string{"component"}, // "embedding" / "lexical"
	)

	TuningRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tuning_runs_total",
			Help:      "Weight tuning sweeps by outcome",
		},
		[]string{"status"},
	)

	IndexedDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_documents",
			Help:      "Documents in the live lexical index",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchStageDuration)
	prometheus.MustRegister(SearchCandidates)
	prometheus.MustRegister(BlendWeight)
	prometheus.MustRegister(TuningRunsTotal)
	prometheus.MustRegister(IndexedDocuments)
	searchMetricsRegistered = true
}
