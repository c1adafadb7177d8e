// Package metrics exposes engine counters and latencies in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nkiryanov/recharge/internal/apperrors"
)

// Operation names used as label values
const (
	OpCreateCreditRequest  = "create_credit_request"
	OpApproveCreditRequest = "approve_credit_request"
	OpRejectCreditRequest  = "reject_credit_request"
	OpChargePhone          = "charge_phone"
	OpVerifyAccounting     = "verify_accounting"
)

const outcomeOK = "ok"

// Metrics is safe to use as nil pointer: every method becomes no-op
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	mismatches prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recharge",
			Name:      "operations_total",
			Help:      "Engine operations by name and outcome (ok or error kind).",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recharge",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency including row lock waits.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recharge",
			Name:      "reconciliation_mismatches_total",
			Help:      "Reconciliation checks where stored balance differs from ledger sum.",
		}),
	}

	m.registry.MustRegister(
		m.operations,
		m.duration,
		m.mismatches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Observe records operation outcome and latency since start
func (m *Metrics) Observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}

	outcome := outcomeOK
	if err != nil {
		outcome = apperrors.KindOf(err).String()
	}

	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ReconciliationMismatch() {
	if m == nil {
		return
	}
	m.mismatches.Inc()
}

// Handler serves registered metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
