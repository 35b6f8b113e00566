// Package metrics exposes Prometheus collectors for the mentoring worker.
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mentoring_hub"

// Metrics holds the application collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	autoCancelScheduled prometheus.Counter
	autoCancelFired     *prometheus.CounterVec
	autoCancelPending   prometheus.Gauge

	mailsDelivered *prometheus.CounterVec
	mailQueueDepth prometheus.Gauge

	reportsSubmitted prometheus.Counter
	compensationPaid prometheus.Counter
	creditedHours    prometheus.Histogram

	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		autoCancelScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auto_cancel",
			Name:      "scheduled_total",
			Help:      "Auto-cancel tasks registered.",
		}),
		autoCancelFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auto_cancel",
			Name:      "fired_total",
			Help:      "Auto-cancel tasks that fired, by outcome.",
		}, []string{"outcome"}),
		autoCancelPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "auto_cancel",
			Name:      "pending",
			Help:      "Auto-cancel tasks currently pending.",
		}),

		mailsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "deliveries_total",
			Help:      "Mail deliveries by type and result.",
		}, []string{"type", "result"}),
		mailQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "queue_depth",
			Help:      "Mail requests waiting in the in-memory queue.",
		}),

		reportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "submitted_total",
			Help:      "Reports submitted.",
		}),
		compensationPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "compensation_total",
			Help:      "Sum of money fixed on submitted reports.",
		}),
		creditedHours: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "credited_hours",
			Help:      "Credited hours per submitted report.",
			Buckets:   []float64{0, 0.5, 1, 2, 3, 4},
		}),

		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Periodic job runs by job and success.",
		}, []string{"job", "success"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_run_duration_seconds",
			Help:      "Duration of periodic job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"job"}),
	}

	m.registry.MustRegister(
		m.autoCancelScheduled,
		m.autoCancelFired,
		m.autoCancelPending,
		m.mailsDelivered,
		m.mailQueueDepth,
		m.reportsSubmitted,
		m.compensationPaid,
		m.creditedHours,
		m.jobRuns,
		m.jobDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registered collectors.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// AutoCancelScheduled counts a registered task and sets the pending gauge.
func (m *Metrics) AutoCancelScheduled(pending int) {
	if m == nil {
		return
	}
	m.autoCancelScheduled.Inc()
	m.autoCancelPending.Set(float64(pending))
}

// AutoCancelPending sets the pending gauge.
func (m *Metrics) AutoCancelPending(pending int) {
	if m == nil {
		return
	}
	m.autoCancelPending.Set(float64(pending))
}

// AutoCancelFired counts a fired task: cancelled, skipped or failed.
func (m *Metrics) AutoCancelFired(outcome string) {
	if m == nil {
		return
	}
	m.autoCancelFired.WithLabelValues(outcome).Inc()
}

// MailDelivered counts a delivery attempt that ended in result.
func (m *Metrics) MailDelivered(mailType, result string) {
	if m == nil {
		return
	}
	m.mailsDelivered.WithLabelValues(mailType, result).Inc()
}

// MailQueueDepth sets the queue depth gauge.
func (m *Metrics) MailQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.mailQueueDepth.Set(float64(depth))
}

// ReportSubmitted records the money and credited time of a submitted report.
func (m *Metrics) ReportSubmitted(money int64, credited time.Duration) {
	if m == nil {
		return
	}
	m.reportsSubmitted.Inc()
	m.compensationPaid.Add(float64(money))
	m.creditedHours.Observe(credited.Hours())
}

// RecordJob records a periodic job run.
func (m *Metrics) RecordJob(job string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
