// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_items_completed_total",
			Help: "Total number of items that reached Persisted",
		},
	)

	ItemsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_items_failed_total",
			Help: "Total number of items that failed",
		},
		[]string{"error_code"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_cache_hits_total",
			Help: "Total number of items served from the output cache",
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of pipeline stages in seconds",
		},
		[]string{"stage"},
	)

	BatchRowsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_batch_rows_skipped_total",
			Help: "Total number of batch rows skipped for missing data",
		},
	)
)
