package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vault tracks custody transitions by operation and outcome.
type Vault struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewVault registers the vault metrics on reg. Pass a fresh registry in
// tests; main uses prometheus.DefaultRegisterer.
func NewVault(reg prometheus.Registerer) *Vault {
	f := promauto.With(reg)
	return &Vault{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rahnu_vault_operations_total",
			Help: "Vault custody operations by op and outcome",
		}, []string{"op", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rahnu_vault_operation_duration_seconds",
			Help:    "Duration of vault custody operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op"}),
	}
}

// Observe records one finished operation. Safe on a nil receiver.
func (m *Vault) Observe(op, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
