package cdlod

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	selectedNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cdlod_selected_nodes",
		Help: "The number of nodes selected in the last finished frame.",
	})

	selectionOverflows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cdlod_selection_overflow_total",
		Help: "The number of frames whose selection buffer overflowed.",
	})

	selectionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cdlod_selection_seconds",
		Help:    "Time from selection reset to finish.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})
)
