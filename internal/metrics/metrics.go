// Package metrics registers the Prometheus metrics for both daemons,
// renamed from the teacher's job-scheduler domain to the punch/ledger
// domain (DESIGN.md).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Engine metrics

	PunchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "punches_total",
		Help:      "Total punches processed, by reconciliation outcome.",
	}, []string{"outcome"})

	EngineProcessDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attendance",
		Name:      "engine_process_duration_seconds",
		Help:      "Time to classify and apply one punch end to end.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	// Device supervisor metrics

	DeviceConnectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "device_connects_total",
		Help:      "Total terminal connection attempts, by outcome.",
	}, []string{"device_ip", "outcome"})

	DevicesConnectedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "attendance",
		Name:      "devices_connected",
		Help:      "Number of terminals currently streaming.",
	})

	// Janitor metrics

	JanitorClosedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "janitor_closed_total",
		Help:      "Total rows closed by the Janitor sweep.",
	})

	JanitorCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attendance",
		Name:      "janitor_cycle_duration_seconds",
		Help:      "Time taken for one Janitor sweep cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	JanitorCycleErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "janitor_cycle_errors_total",
		Help:      "Total row-level errors encountered during Janitor cycles.",
	})

	// Process lifecycle

	ProcessStartTime = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "attendance",
		Name:      "process_start_time_seconds",
		Help:      "Unix timestamp when the process started.",
	}, []string{"process"})

	// Admin HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "attendance",
		Name:      "http_request_duration_seconds",
		Help:      "Admin API request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "http_requests_total",
		Help:      "Total admin API requests.",
	}, []string{"method", "path", "status"})
)

// Register registers every metric with the default Prometheus registerer.
// Safe to call once per process.
func Register() {
	prometheus.MustRegister(
		PunchesTotal,
		EngineProcessDuration,
		DeviceConnectsTotal,
		DevicesConnectedGauge,
		JanitorClosedTotal,
		JanitorCycleDuration,
		JanitorCycleErrorsTotal,
		ProcessStartTime,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer returns a standalone metrics HTTP server, for deployments that
// prefer not to serve /metrics from the admin API router.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
