package app

import (
	"time"

	"github.com/iov-one/threshold/x/utils"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of the operation counter.
const (
	resultOK       = "ok"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

type metrics struct {
	operations *prometheus.CounterVec
	execution  prometheus.Histogram
	proposals  *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threshold",
			Name:      "operations_total",
			Help:      "Wallet operations by name and result.",
		}, []string{"op", "result"}),
		execution: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "threshold",
			Name:      "execution_duration_seconds",
			Help:      "Duration of proposal execution attempts, action included.",
			Buckets:   prometheus.DefBuckets,
		}),
		proposals: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "threshold",
			Name:      "proposals",
			Help:      "Number of proposals by state.",
		}, []string{"state"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.execution, m.proposals)
	}
	return m
}

func (m *metrics) observe(op string, err error) {
	m.operations.WithLabelValues(op, result(err)).Inc()
}

func (m *metrics) observeExecution(start time.Time) {
	m.execution.Observe(time.Since(start).Seconds())
}

func (m *metrics) setProposals(pending, executed int) {
	m.proposals.WithLabelValues("pending").Set(float64(pending))
	m.proposals.WithLabelValues("executed").Set(float64(executed))
}

func result(err error) string {
	switch {
	case err == nil:
		return resultOK
	case utils.IsRejection(err):
		return resultRejected
	default:
		return resultFailed
	}
}
