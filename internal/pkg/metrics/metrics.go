// Package metrics exposes the Prometheus counters and gauges around a
// solve invocation. Only the composer imports this package, around its
// Solve call; no submodel or loader reports metrics directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "catex",
	Name:      "solve_duration_seconds",
	Help:      "Wall-clock time spent inside Composer.Solve.",
	Buckets:   prometheus.DefBuckets,
})

var terminationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "catex",
	Name:      "solve_termination_count",
	Help:      "Number of solves by termination status.",
}, []string{"status"})

var lastTotalCost = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "catex",
	Name:      "last_total_cost",
	Help:      "Total objective value of the most recently completed solve.",
})

// ObserveSolve records the duration and termination status of a single
// Composer.Solve call.
func ObserveSolve(d time.Duration, status string) {
	solveDuration.Observe(d.Seconds())
	terminationCount.With(prometheus.Labels{"status": status}).Inc()
}

// ObserveTotalCost records the objective value of a SOLVED run.
func ObserveTotalCost(cost float64) {
	lastTotalCost.Set(cost)
}
