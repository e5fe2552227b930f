package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance module.
type Metrics struct {
	Verdicts        *prometheus.CounterVec
	Score           *prometheus.GaugeVec
	AlertsRaised    prometheus.Counter
	ValidateLatency prometheus.Histogram
}

// New creates a new Metrics instance with all compliance metrics registered.
func New() *Metrics {
	return &Metrics{
		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "replicare_compliance_verdicts_total",
			Help: "Total rule evaluations by category and result",
		}, []string{"category", "result"}),

		Score: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "replicare_compliance_score",
			Help: "Latest compliance score per region (0-100)",
		}, []string{"region"}),

		AlertsRaised: promauto.NewCounter(prometheus.CounterOpts{
			Name: "replicare_compliance_alerts_total",
			Help: "Total compliance alerts raised by the scorer",
		}),

		ValidateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "replicare_compliance_validate_duration_seconds",
			Help:    "Duration of per-record validation including audit write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
	}
}

// IncVerdict records one category evaluation result.
func (m *Metrics) IncVerdict(category, result string) {
	if m != nil {
		m.Verdicts.WithLabelValues(category, result).Inc()
	}
}

// SetScore publishes the latest score for a region.
func (m *Metrics) SetScore(region string, score float64) {
	if m != nil {
		m.Score.WithLabelValues(region).Set(score)
	}
}

// IncAlert counts a raised alert.
func (m *Metrics) IncAlert() {
	if m != nil {
		m.AlertsRaised.Inc()
	}
}

// ObserveValidateLatency records a validation duration.
func (m *Metrics) ObserveValidateLatency(d time.Duration) {
	if m != nil {
		m.ValidateLatency.Observe(d.Seconds())
	}
}
