package metrics

import (
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module.
type Metrics struct {
	// Operation outcomes by operation name and result
	Operations *prometheus.CounterVec

	// Operation latency including external token and registry calls
	OperationLatency *prometheus.HistogramVec

	// Token base units moved, by flow: "deposit_vested", "deposit_waited", "withdraw", "stake"
	AmountMoved *prometheus.CounterVec

	// Vesting handoffs that failed and were rolled back
	HandoffFailures prometheus.Counter

	// Deposits refunded because persisting the new state failed
	Refunds *prometheus.CounterVec

	// Withdrawals and stakes whose transfer went through but whose unit did
	// not commit, replayed outside the failed transaction
	Reconciliations *prometheus.CounterVec
}

// New creates a new Metrics instance with all ledger module metrics registered.
func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_ledger_operations_total",
			Help: "Total ledger operations by operation and result",
		}, []string{"operation", "result"}), // result: "ok", or the failure code

		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custody_ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		AmountMoved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_ledger_amount_moved_total",
			Help: "Token base units moved through custody by flow",
		}, []string{"flow"}),

		HandoffFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custody_ledger_vesting_handoff_failures_total",
			Help: "Vesting handoffs aborted after a failed stake",
		}),

		Refunds: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_ledger_refunds_total",
			Help: "Deposits returned to the depositor after a persistence failure, by result",
		}, []string{"result"}),

		Reconciliations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_ledger_reconciliations_total",
			Help: "Units replayed after funds moved but the commit failed, by result",
		}, []string{"result"}),
	}
}

// ObserveOperation records the outcome and latency of one operation.
func (m *Metrics) ObserveOperation(op, result string, d time.Duration) {
	if m != nil {
		m.Operations.WithLabelValues(op, result).Inc()
		m.OperationLatency.WithLabelValues(op).Observe(d.Seconds())
	}
}

// AddAmount records moved base units. Amounts beyond float64 precision are
// approximated.
func (m *Metrics) AddAmount(flow string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	f, _ := new(big.Float).SetInt(amount).Float64()
	m.AmountMoved.WithLabelValues(flow).Add(f)
}

func (m *Metrics) IncHandoffFailure() {
	if m != nil {
		m.HandoffFailures.Inc()
	}
}

func (m *Metrics) IncRefund(result string) {
	if m != nil {
		m.Refunds.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncReconciliation(result string) {
	if m != nil {
		m.Reconciliations.WithLabelValues(result).Inc()
	}
}
