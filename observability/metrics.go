package observability

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records mint activity and distributed value.
type SettlementMetrics struct {
	mints       *prometheus.CounterVec
	units       prometheus.Counter
	distributed prometheus.Counter
	latency     prometheus.Histogram
}

var (
	settlementOnce sync.Once
	settlementReg  *SettlementMetrics
)

// Settlement returns the lazily-initialised settlement metrics registry.
func Settlement() *SettlementMetrics {
	settlementOnce.Do(func() {
		settlementReg = &SettlementMetrics{
			mints: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tunemint",
				Subsystem: "settlement",
				Name:      "mints_total",
				Help:      "Total settlement calls segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			units: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "tunemint",
				Subsystem: "settlement",
				Name:      "units_issued_total",
				Help:      "Total item units issued by successful settlements.",
			}),
			distributed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "tunemint",
				Subsystem: "settlement",
				Name:      "value_distributed_total",
				Help:      "Total value (smallest currency unit) moved to payees.",
			}),
			latency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "tunemint",
				Subsystem: "settlement",
				Name:      "duration_seconds",
				Help:      "Latency distribution of settlement calls.",
				Buckets:   prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(
			settlementReg.mints,
			settlementReg.units,
			settlementReg.distributed,
			settlementReg.latency,
		)
	})
	return settlementReg
}

// RecordMint counts one settlement call.
func (m *SettlementMetrics) RecordMint(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mints.WithLabelValues(op, outcome).Inc()
}

// RecordIssued adds issued units and distributed value from a settled call.
func (m *SettlementMetrics) RecordIssued(units uint64, value *big.Int) {
	if m == nil {
		return
	}
	m.units.Add(float64(units))
	if value != nil {
		paid, _ := new(big.Float).SetInt(value).Float64()
		m.distributed.Add(paid)
	}
}

// ObserveDuration records one settlement call latency in seconds.
func (m *SettlementMetrics) ObserveDuration(seconds float64) {
	if m == nil {
		return
	}
	m.latency.Observe(seconds)
}
