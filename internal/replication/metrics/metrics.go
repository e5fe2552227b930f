package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the replication module.
type Metrics struct {
	Lag            *prometheus.GaugeVec
	Transitions    *prometheus.CounterVec
	StaleSamples   *prometheus.CounterVec
	SampleFailures *prometheus.CounterVec
}

// New creates a new Metrics instance with all replication metrics registered.
func New() *Metrics {
	return &Metrics{
		Lag: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "replicare_replication_lag_seconds",
			Help: "Latest observed replication lag per region pair",
		}, []string{"pair"}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "replicare_replication_transitions_total",
			Help: "Health state transitions by from/to state",
		}, []string{"from", "to"}),

		StaleSamples: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "replicare_replication_stale_samples_total",
			Help: "Out-of-order samples rejected per region pair",
		}, []string{"pair"}),

		SampleFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "replicare_replication_sample_failures_total",
			Help: "Failed sampling attempts per region pair",
		}, []string{"pair"}),
	}
}

// ObserveLag publishes the latest lag for a pair.
func (m *Metrics) ObserveLag(pair string, lag time.Duration) {
	if m != nil {
		m.Lag.WithLabelValues(pair).Set(lag.Seconds())
	}
}

// IncTransition counts a health state transition.
func (m *Metrics) IncTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

// IncStaleSample counts a rejected out-of-order sample.
func (m *Metrics) IncStaleSample(pair string) {
	if m != nil {
		m.StaleSamples.WithLabelValues(pair).Inc()
	}
}

// IncSampleFailure counts a failed sampling attempt.
func (m *Metrics) IncSampleFailure(pair string) {
	if m != nil {
		m.SampleFailures.WithLabelValues(pair).Inc()
	}
}
