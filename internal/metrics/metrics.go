// Package metrics defines the Prometheus collectors of the till.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/weighbill/internal/calculator"
	"github.com/mmynk/weighbill/internal/models"
)

const namespace = "weighbill"

// Metrics groups the collectors.
type Metrics struct {
	LinesCommitted prometheus.Counter
	BillsSaved     prometheus.Counter
	BillTotal      prometheus.Histogram
	WriteFailures  *prometheus.CounterVec
	RPCRequests    *prometheus.CounterVec
	RPCDuration    *prometheus.HistogramVec

	reg prometheus.Registerer
}

// New registers and returns the collectors. A nil reg uses the default
// registerer. Registering twice on the same registerer reuses the existing
// collectors.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{reg: reg}
	m.LinesCommitted = mustRegister(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lines_committed_total",
		Help:      "Total number of lines added to the working bill.",
	}))
	m.BillsSaved = mustRegister(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bills_saved_total",
		Help:      "Total number of bills saved to history.",
	}))
	m.BillTotal = mustRegister(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "bill_total_units",
		Help:      "Distribution of saved bill totals in whole currency units.",
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}))
	m.WriteFailures = mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_write_failures_total",
		Help:      "Total number of failed persistence writes.",
	}, []string{"key"}))
	m.RPCRequests = mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "Total number of RPC calls handled by the server.",
	}, []string{"procedure", "code"}))
	m.RPCDuration = mustRegister(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_ms",
		Help:      "RPC latency distribution in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"procedure"}))
	return m
}

// Hooks returns accumulator hooks that feed the collectors.
func (m *Metrics) Hooks() calculator.Hooks {
	return calculator.Hooks{
		LineCommitted: func(models.LineItem) { m.LinesCommitted.Inc() },
		BillSaved: func(r models.Receipt) {
			m.BillsSaved.Inc()
			m.BillTotal.Observe(float64(r.Total))
		},
		PersistFailed: m.WriteFailed,
	}
}

// WriteFailed counts a failed write of key.
func (m *Metrics) WriteFailed(key string, _ error) {
	m.WriteFailures.WithLabelValues(key).Inc()
}

// ObserveRPC records one finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	m.RPCRequests.WithLabelValues(procedure, code).Inc()
	m.RPCDuration.WithLabelValues(procedure).Observe(float64(d) / float64(time.Millisecond))
}

// RegisterSubscriberGauge exposes the live mini subscriber count.
func (m *Metrics) RegisterSubscriberGauge(count func() int) {
	mustRegister(m.reg, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mini_subscribers",
		Help:      "Current number of live mini subscriptions.",
	}, func() float64 { return float64(count()) }))
}

func mustRegister[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
	return c
}
