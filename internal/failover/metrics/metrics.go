package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the failover module.
type Metrics struct {
	Transitions          *prometheus.CounterVec
	PreconditionFailures prometheus.Counter
	State                prometheus.Gauge
}

// New creates a new Metrics instance with all failover metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "replicare_failover_transitions_total",
			Help: "Failover state transitions by from/to state",
		}, []string{"from", "to"}),

		PreconditionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "replicare_failover_precondition_failures_total",
			Help: "Transitions blocked by a safety precondition",
		}),

		State: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "replicare_failover_state",
			Help: "Current failover state (0=STABLE through 4=RECOVERING)",
		}),
	}
}

// IncTransition counts a committed state transition.
func (m *Metrics) IncTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

// IncPreconditionFailure counts a blocked transition.
func (m *Metrics) IncPreconditionFailure() {
	if m != nil {
		m.PreconditionFailures.Inc()
	}
}

// SetState publishes the current state.
func (m *Metrics) SetState(v float64) {
	if m != nil {
		m.State.Set(v)
	}
}
