package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/timetable"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and scheduling decisions.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	decisions       *prometheus.CounterVec
	planDuration    *prometheus.HistogramVec
	lessonsPlanned  prometheus.Counter
	eventsPublished *prometheus.CounterVec
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

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_decisions_total",
		Help: "Timetable planning decisions by operation and outcome",
	}, []string{"operation", "outcome"})

	planDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_plan_duration_seconds",
		Help:    "Time spent expanding a timetable and checking it for conflicts",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"operation"})

	lessonsPlanned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_lessons_planned_total",
		Help: "Lesson occurrences produced by accepted timetables",
	})

	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lesson_events_published_total",
		Help: "Lesson events handed to the event bus by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, decisions, planDuration, lessonsPlanned, eventsPublished, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		decisions:       decisions,
		planDuration:    planDuration,
		lessonsPlanned:  lessonsPlanned,
		eventsPublished: eventsPublished,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordDecision counts a planning outcome for operation (preview or apply).
func (m *MetricsService) RecordDecision(operation string, outcome timetable.Outcome, lessons int, duration time.Duration) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(operation, string(outcome)).Inc()
	m.planDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if outcome == timetable.OutcomeAccepted && lessons > 0 {
		m.lessonsPlanned.Add(float64(lessons))
	}
}

// RecordEventPublish counts a publish attempt.
func (m *MetricsService) RecordEventPublish(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.eventsPublished.WithLabelValues(result).Inc()
}
