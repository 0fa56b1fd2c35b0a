package fractal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractree_generations_total",
			Help: "The total number of tree generations processed",
		},
		[]string{"mode", "status"},
	)
	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fractree_generation_duration_seconds",
			Help:    "The wall time of tree generations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"mode"},
	)
	tasksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fractree_tasks_total",
			Help: "The total number of subtree tasks dispatched to workers",
		},
	)
	branchesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fractree_branches_generated_total",
			Help: "The total number of branches produced by successful generations",
		},
	)
)
