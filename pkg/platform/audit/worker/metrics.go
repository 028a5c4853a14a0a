package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the outbox relay.
type Metrics struct {
	Relayed       prometheus.Counter
	RelayFailures prometheus.Counter
	BreakerState  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with relay metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		Relayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custody_audit_outbox_relayed_total",
			Help: "Total number of audit outbox entries delivered to the sink",
		}),
		RelayFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custody_audit_outbox_relay_failures_total",
			Help: "Total number of failed relay attempts",
		}),
		BreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "custody_audit_outbox_breaker_state",
			Help: "Sink circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
	}
}

func (m *Metrics) addRelayed(n int) {
	if m == nil {
		return
	}
	m.Relayed.Add(float64(n))
}

func (m *Metrics) incFailure() {
	if m == nil {
		return
	}
	m.RelayFailures.Inc()
}

func (m *Metrics) setBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerState.Set(1)
		return
	}
	m.BreakerState.Set(0)
}
