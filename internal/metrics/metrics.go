package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "ledger_"

	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	registerOnce sync.Once

	settlementTotal   *prometheus.CounterVec
	settlementLatency *prometheus.HistogramVec
	settledAmount     *prometheus.CounterVec
	receiptTotal      *prometheus.CounterVec
)

// Init registers the ledger metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		settlementTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlements_total",
				Help: "Total settlement submissions by kind and result",
			},
			[]string{"kind", "result"},
		)
		settlementLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "settlement_latency_seconds",
				Help:    "Settlement latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		settledAmount = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settled_amount_total",
				Help: "Sum of settled payment totals by kind",
			},
			[]string{"kind"},
		)
		receiptTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "receipts_total",
				Help: "Total receipt renders by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(settlementTotal, settlementLatency, settledAmount, receiptTotal)
	})
}

// ObserveSettlement records one settlement attempt. amount is ignored unless result is ResultSuccess.
func ObserveSettlement(kind, result string, amount float64, started time.Time) {
	if settlementTotal == nil {
		return
	}

	settlementTotal.WithLabelValues(kind, result).Inc()
	settlementLatency.WithLabelValues(result).Observe(time.Since(started).Seconds())

	if result == ResultSuccess {
		settledAmount.WithLabelValues(kind).Add(amount)
	}
}

func ObserveReceipt(result string) {
	if receiptTotal == nil {
		return
	}

	receiptTotal.WithLabelValues(result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
