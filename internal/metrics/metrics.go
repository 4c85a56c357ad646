package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkoff_decisions_total",
			Help: "TA decisions recorded, by outcome",
		},
		[]string{"decision"},
	)

	GradebookReplaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkoff_gradebook_replays_total",
			Help: "Replay attempts for failed gradebook projections, by result",
		},
		[]string{"result"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkoff_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
