// Package metrics holds the Prometheus instruments for pipeline runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the per-process pipeline instruments. One instance is
// shared across controller runs; all instruments are goroutine-safe.
type Metrics struct {
	// FramesProcessed counts completed user-callback invocations
	FramesProcessed prometheus.Counter
	// BusErrors counts fatal error events consumed from the engine bus
	BusErrors prometheus.Counter
	// BusWarnings counts warning events consumed from the engine bus
	BusWarnings prometheus.Counter
	// StateTransitions counts controller state entries, labeled by state
	StateTransitions *prometheus.CounterVec
}

// New registers the pipeline instruments with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FramesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "inferpipe",
			Name:      "frames_processed_total",
			Help:      "Completed user-callback invocations at the attach point.",
		}),
		BusErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "inferpipe",
			Name:      "bus_errors_total",
			Help:      "Fatal error events consumed from the engine bus.",
		}),
		BusWarnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "inferpipe",
			Name:      "bus_warnings_total",
			Help:      "Warning events consumed from the engine bus.",
		}),
		StateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inferpipe",
			Name:      "state_transitions_total",
			Help:      "Lifecycle state entries by target state.",
		}, []string{"state"}),
	}
}
