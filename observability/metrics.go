package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type venueMetrics struct {
	intents     *prometheus.CounterVec
	swaps       *prometheus.CounterVec
	allocations *prometheus.CounterVec
	swept       prometheus.Counter
	rejections  prometheus.Counter
}

var (
	venueMetricsOnce sync.Once
	venueRegistry    *venueMetrics
)

// Venue returns the metrics registry tracking intent resolution outcomes.
func Venue() *venueMetrics {
	venueMetricsOnce.Do(func() {
		venueRegistry = &venueMetrics{
			intents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "intentsim",
				Subsystem: "pool",
				Name:      "intents_submitted_total",
				Help:      "Count of intents accepted into the pool segmented by kind.",
			}, []string{"kind"}),
			swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "intentsim",
				Subsystem: "swap",
				Name:      "settlements_total",
				Help:      "Count of settled swap intents segmented by route.",
			}, []string{"route"}),
			allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "intentsim",
				Subsystem: "staking",
				Name:      "allocations_total",
				Help:      "Count of staking allocation attempts segmented by outcome.",
			}, []string{"outcome"}),
			swept: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "intentsim",
				Subsystem: "pool",
				Name:      "intents_swept_total",
				Help:      "Count of completed intents removed by pool hygiene.",
			}),
			rejections: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "intentsim",
				Subsystem: "pool",
				Name:      "submissions_rejected_total",
				Help:      "Count of submissions rejected before entering the pool.",
			}),
		}
		prometheus.MustRegister(
			venueRegistry.intents,
			venueRegistry.swaps,
			venueRegistry.allocations,
			venueRegistry.swept,
			venueRegistry.rejections,
		)
	})
	return venueRegistry
}

// RecordIntent increments the submission counter for the supplied kind.
func (m *venueMetrics) RecordIntent(kind string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(kind).Inc()
}

// RecordSwapSettlement increments the settlement counter for a route
// ("peer" or "solver").
func (m *venueMetrics) RecordSwapSettlement(route string) {
	if m == nil {
		return
	}
	m.swaps.WithLabelValues(route).Inc()
}

// RecordAllocation tracks one staking allocation attempt.
func (m *venueMetrics) RecordAllocation(committed bool) {
	if m == nil {
		return
	}
	outcome := "infeasible"
	if committed {
		outcome = "committed"
	}
	m.allocations.WithLabelValues(outcome).Inc()
}

// RecordSweep adds the number of intents removed by one hygiene pass.
func (m *venueMetrics) RecordSweep(removed int) {
	if m == nil || removed <= 0 {
		return
	}
	m.swept.Add(float64(removed))
}

// RecordRejection counts a synchronous pre-pool rejection.
func (m *venueMetrics) RecordRejection() {
	if m == nil {
		return
	}
	m.rejections.Inc()
}
