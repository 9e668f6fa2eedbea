// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "splitty"

var (
	splitsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "splits_computed_total",
		Help:      "Number of split computations that produced a result.",
	})

	splitWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "split_warnings_total",
		Help:      "Warnings attached to computed splits, by code.",
	}, []string{"code"})

	reconciliationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciliation_failures_total",
		Help:      "Split computations aborted because the allocation did not reconcile.",
	})

	recognizerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recognizer_requests_total",
		Help:      "Receipt analysis requests, by outcome.",
	}, []string{"outcome"})

	recognizerDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recognizer_request_duration_seconds",
		Help:      "Latency of receipt analysis requests.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Split sessions currently held in memory.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests, by path prefix and status class.",
	}, []string{"route", "status"})
)

// SplitComputed records a successful computation and its warnings.
func SplitComputed(warningCodes []string) {
	splitsComputed.Inc()
	for _, code := range warningCodes {
		splitWarnings.WithLabelValues(code).Inc()
	}
}

// ReconciliationFailed records an aborted computation.
func ReconciliationFailed() {
	reconciliationFailures.Inc()
}

// RecognizerRequest records one analysis call.
func RecognizerRequest(outcome string, elapsed time.Duration) {
	recognizerRequests.WithLabelValues(outcome).Inc()
	recognizerDuration.Observe(elapsed.Seconds())
}

// SessionOpened and SessionClosed track live sessions.
func SessionOpened() { activeSessions.Inc() }

func SessionClosed() { activeSessions.Dec() }

// HTTPRequest records a served request.
func HTTPRequest(route, status string) {
	httpRequests.WithLabelValues(route, status).Inc()
}
