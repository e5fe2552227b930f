package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for record ingestion.
type Metrics struct {
	RecordsProcessed *prometheus.CounterVec
}

// New creates a new Metrics instance with all ingestion metrics registered.
func New() *Metrics {
	return &Metrics{
		RecordsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "replicare_records_processed_total",
			Help: "Records processed at ingestion by status and region",
		}, []string{"status", "region"}),
	}
}

// IncProcessed counts one ingestion outcome.
func (m *Metrics) IncProcessed(status, region string) {
	if m != nil {
		m.RecordsProcessed.WithLabelValues(status, region).Inc()
	}
}
