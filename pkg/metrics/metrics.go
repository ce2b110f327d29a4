package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Request executor metrics
	RemoteCalls   *prometheus.CounterVec
	RemoteLatency *prometheus.HistogramVec
	Fallbacks     *prometheus.CounterVec

	// Local store metrics
	StoreOperations *prometheus.CounterVec

	// Bootstrap metrics
	EntityLoads *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics against reg.
// A nil reg registers nothing, which keeps tests free of global state.
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RemoteCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "remote_calls_total",
			Help:      "Total number of remote backend calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		RemoteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "remote_call_duration_seconds",
			Help:      "Duration of remote backend calls",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fallbacks_total",
			Help:      "Total number of calls served from the local store, by reason",
		}, []string{"reason"}),

		StoreOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "local_store_operations_total",
			Help:      "Total number of local store operations",
		}, []string{"operation", "status"}),

		EntityLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bootstrap_entity_loads_total",
			Help:      "Entity loads attempted during bootstrap, by entity and source",
		}, []string{"entity", "source"}),
	}
}

// Nop returns unregistered metrics.
func Nop() *Metrics {
	return NewMetrics(nil, "healthplus", "test")
}
