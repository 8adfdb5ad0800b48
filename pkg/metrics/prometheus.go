package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	gateDecisions *prometheus.CounterVec
	refreshErrors prometheus.Counter
	signups       *prometheus.CounterVec
	chartMounts   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

var (
	recorder     *Recorder
	recorderOnce sync.Once
)

// New returns the process-wide Prometheus recorder.
func New() *Recorder {
	recorderOnce.Do(func() {
		recorder = &Recorder{
			gateDecisions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "findash_gate_decisions_total",
					Help: "Edge gate decisions by route class and action",
				},
				[]string{"route", "action"},
			),
			refreshErrors: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "findash_gate_refresh_errors_total",
					Help: "Session refresh failures seen by the edge gate",
				},
			),
			signups: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "findash_signups_total",
					Help: "Signup attempts by result",
				},
				[]string{"result"},
			),
			chartMounts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "findash_chart_mounts_total",
					Help: "Chart mount outcomes",
				},
				[]string{"phase"},
			),
			latency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "findash_operation_duration_seconds",
					Help:    "Duration of operations in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"operation"},
			),
		}
	})
	return recorder
}

func (r *Recorder) RecordGateDecision(route, action string) {
	r.gateDecisions.WithLabelValues(route, action).Inc()
}

func (r *Recorder) RecordRefreshError() {
	r.refreshErrors.Inc()
}

// RecordSignup records a signup outcome (created, invalid, rejected, profile_pending).
func (r *Recorder) RecordSignup(result string) {
	r.signups.WithLabelValues(result).Inc()
}

// RecordChartMount records the terminal phase of a chart mount.
func (r *Recorder) RecordChartMount(phase string) {
	r.chartMounts.WithLabelValues(phase).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
