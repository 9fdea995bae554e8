package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "territory_solve_duration_seconds",
		Help:    "Time spent producing one turn of actions, by solver",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"solver"})

	flowAugmentations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "territory_flow_augmentations_total",
		Help: "Augmenting paths found by the assignment min-cost flow",
	})

	regretIterations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "territory_regret_iterations_total",
		Help: "Regret-matching iterations run",
	})

	annealIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "territory_anneal_iterations",
		Help:    "Simulated annealing proposals evaluated per solve",
		Buckets: prometheus.ExponentialBuckets(16, 2, 14),
	})
)
