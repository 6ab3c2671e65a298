// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tasker"

// Metrics holds the application's collectors. A nil *Metrics is valid and
// records nothing, so components can run without instrumentation in tests.
type Metrics struct {
	registry *prometheus.Registry

	TasksExpired      prometheus.Counter
	RemindersEmitted  prometheus.Counter
	SweepRuns         *prometheus.CounterVec
	SweepDuration     prometheus.Histogram
	NotificationsSent *prometheus.CounterVec
	NotifyQueueDepth  prometheus.Gauge
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		TasksExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_expired_total",
			Help:      "Tasks moved to EXPIRED by the sweeper.",
		}),
		RemindersEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_emitted_total",
			Help:      "Due-soon reminder events emitted by the sweeper.",
		}),
		SweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Sweeper runs by trigger and result.",
		}, []string{"trigger", "result"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Time spent in one sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Reminder notifications by result.",
		}, []string{"result"}),
		NotifyQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notify_queue_depth",
			Help:      "Messages waiting in the notification queue.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TasksExpired,
		m.RemindersEmitted,
		m.SweepRuns,
		m.SweepDuration,
		m.NotificationsSent,
		m.NotifyQueueDepth,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSweep records one sweeper run.
func (m *Metrics) ObserveSweep(trigger string, expired int64, reminders int, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SweepRuns.WithLabelValues(trigger, result).Inc()
	m.SweepDuration.Observe(d.Seconds())
	m.TasksExpired.Add(float64(expired))
	m.RemindersEmitted.Add(float64(reminders))
}

// ObserveNotification records one delivery attempt. result is "sent",
// "failed", "dropped" or "skipped".
func (m *Metrics) ObserveNotification(result string) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(result).Inc()
}

// SetQueueDepth records the current notification backlog.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.NotifyQueueDepth.Set(float64(n))
}

// ObserveHTTP records one served request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
