// Package metrics holds the Prometheus collectors for trip activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tripsplit"

// Metrics groups the collectors updated by the trip service and exporters.
type Metrics struct {
	TripsCreated     prometheus.Counter
	ExpensesRecorded prometheus.Counter
	TripResets       prometheus.Counter
	Settlements      *prometheus.CounterVec // by result
	Transfers        prometheus.Histogram
	ResidualCents    prometheus.Histogram
	CacheLookups     *prometheus.CounterVec // by result
	Exports          *prometheus.CounterVec // by destination, result
}

// New registers the collectors on reg. Pass a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TripsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trips_created_total",
			Help:      "Trips created.",
		}),
		ExpensesRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_recorded_total",
			Help:      "Expenses accepted into a trip ledger.",
		}),
		TripResets: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trip_resets_total",
			Help:      "Trip ledgers cleared.",
		}),
		Settlements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlement computations by result.",
		}, []string{"result"}),
		Transfers: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_transfers",
			Help:      "Transfers emitted per settlement.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		ResidualCents: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_residual_cents",
			Help:      "Absolute rounding residual per settlement, in cents.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_cache_lookups_total",
			Help:      "Settlement cache lookups by result.",
		}, []string{"result"}),
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Report exports by destination and result.",
		}, []string{"destination", "result"}),
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
