package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation on a private registry.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	notifications   *prometheus.CounterVec
	reminderSweeps  *prometheus.CounterVec
	sweepDuration   prometheus.Observer
	queueDepth      prometheus.Gauge
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "settings_cache_latency_seconds",
		Help:    "Latency for settings cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settings_cache_hits_total",
		Help: "Settings cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settings_cache_misses_total",
		Help: "Settings cache misses",
	})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_notifications_total",
		Help: "Workflow notification outcomes by kind and reason",
	}, []string{"kind", "reason"})

	reminderSweeps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_sweep_requests_total",
		Help: "Requests visited by reminder sweeps by department and outcome",
	}, []string{"department", "outcome"})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reminder_sweep_duration_seconds",
		Help:    "Duration of reminder sweeps",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})

	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notification_queue_depth",
		Help: "Status notifications waiting in the worker queue",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses,
		notifications, reminderSweeps, sweepDuration, queueDepth, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		notifications:   notifications,
		reminderSweeps:  reminderSweeps,
		sweepDuration:   sweepDuration,
		queueDepth:      queueDepth,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a settings cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordNotification counts a gating engine outcome.
func (m *MetricsService) RecordNotification(kind string, reason NotificationReason) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, string(reason)).Inc()
}

// RecordSweep records the totals of one reminder sweep.
func (m *MetricsService) RecordSweep(report SweepReport, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
	m.reminderSweeps.WithLabelValues("ACADEMIC_GATE", "opened").Add(float64(report.AcademicGate.Opened))
	for _, dept := range report.Departments {
		label := string(dept.Department)
		m.reminderSweeps.WithLabelValues(label, "sent").Add(float64(dept.Sent))
		m.reminderSweeps.WithLabelValues(label, "suppressed").Add(float64(dept.Suppressed))
		m.reminderSweeps.WithLabelValues(label, "failed").Add(float64(dept.Failed))
	}
}

// SetQueueDepth publishes the notification queue backlog.
func (m *MetricsService) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
