package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// IterationsTotal counts completed iterations, split by classification.
	IterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fij",
			Name:      "iterations_total",
			Help:      "Total number of completed injection iterations",
		},
		[]string{"campaign", "classification", "kind"},
	)

	// InjectionsAttempted counts every retry of the injection loop, whether
	// or not it actually landed before the target quiesced.
	InjectionsAttempted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fij",
			Name:      "injection_attempts_total",
			Help:      "Total number of retry-until-injected attempts",
		},
		[]string{"campaign"},
	)

	// TargetsKilled counts iterations that hit the hang timeout and were
	// force-killed.
	TargetsKilled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fij",
			Name:      "targets_killed_total",
			Help:      "Total number of targets killed after a hang timeout",
		},
		[]string{"campaign"},
	)

	// IterationDuration tracks wall-clock time per iteration.
	IterationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fij",
			Name:      "iteration_duration_seconds",
			Help:      "Wall-clock duration of one iteration",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"campaign"},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// Idempotent: safe to call multiple times.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(IterationsTotal)
		prometheus.DefaultRegisterer.Register(InjectionsAttempted)
		prometheus.DefaultRegisterer.Register(TargetsKilled)
		prometheus.DefaultRegisterer.Register(IterationDuration)
	})
}
