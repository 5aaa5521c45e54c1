package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK           = "ok"
	OutcomeNotConverged = "not_converged"
	OutcomeError        = "error"
)

var (
	// SolveTotal counts model solves by outcome
	SolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "structkernel_solve_total",
			Help: "Total number of model solves",
		},
		[]string{"outcome"},
	)

	// SolveSeconds tracks wall time of assemble + reduce + solve + expand
	SolveSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "structkernel_solve_seconds",
			Help:    "Duration of a full model solve",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
		},
	)

	// SolverIterations tracks MINRES iterations of the last solve
	SolverIterations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "structkernel_solver_iterations",
			Help: "Iterations taken by the last iterative solve",
		},
	)

	// FreeDOFs tracks the size of the last reduced system
	FreeDOFs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "structkernel_free_dofs",
			Help: "Number of free degrees of freedom in the last reduced system",
		},
	)
)

func init() {
	prometheus.MustRegister(SolveTotal)
	prometheus.MustRegister(SolveSeconds)
	prometheus.MustRegister(SolverIterations)
	prometheus.MustRegister(FreeDOFs)
}

// ObserveSolve records one finished solve
func ObserveSolve(outcome string, elapsed time.Duration, iterations, freeDOFs int) {
	SolveTotal.WithLabelValues(outcome).Inc()
	SolveSeconds.Observe(elapsed.Seconds())
	SolverIterations.Set(float64(iterations))
	FreeDOFs.Set(float64(freeDOFs))
}
