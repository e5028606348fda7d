// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchUsersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_users_processed_total",
			Help: "Total number of users processed per batch outcome",
		},
		[]string{"outcome"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "Duration of one user's full matching pipeline in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	AIFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_scorer_fallbacks_total",
			Help: "Semantic-match calls that degraded to the fallback score",
		},
		[]string{"reason"},
	)

	BatchUsersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "batch_users_active",
			Help: "Number of per-user pipelines currently running",
		},
	)
)
