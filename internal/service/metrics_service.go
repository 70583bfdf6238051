package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	generationTotal    *prometheus.CounterVec
	generationDuration prometheus.Histogram
	providerCalls      *prometheus.CounterVec
	providerDuration   *prometheus.HistogramVec
	suggestionTotal    *prometheus.CounterVec
	exportTotal        *prometheus.CounterVec
	activeGenerations  prometheus.Gauge
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

	generationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generations_total",
		Help: "Timetable generation attempts by outcome",
	}, []string{"outcome", "simulated"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "End to end duration of timetable generation",
		Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
	})

	providerCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generator_provider_calls_total",
		Help: "Calls made to LLM providers",
	}, []string{"provider", "operation", "result"})

	providerDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "generator_provider_duration_seconds",
		Help:    "Latency of LLM provider calls",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"provider", "operation"})

	suggestionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "faculty_suggestions_total",
		Help: "Faculty suggestion requests by outcome",
	}, []string{"outcome"})

	exportTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_exports_total",
		Help: "Rendered exports by format and mode",
	}, []string{"format", "mode", "outcome"})

	activeGenerations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_generations_in_flight",
		Help: "Generations currently waiting on a provider",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationTotal, generationDuration, providerCalls,
		providerDuration, suggestionTotal, exportTotal, activeGenerations, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationTotal:    generationTotal,
		generationDuration: generationDuration,
		providerCalls:      providerCalls,
		providerDuration:   providerDuration,
		suggestionTotal:    suggestionTotal,
		exportTotal:        exportTotal,
		activeGenerations:  activeGenerations,
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
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

// ObserveCompletion records one LLM provider call.
func (m *MetricsService) ObserveCompletion(provider, operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.providerCalls.WithLabelValues(provider, operation, result).Inc()
	m.providerDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// GenerationStarted tracks an in-flight generation; call the returned func when done.
func (m *MetricsService) GenerationStarted() func() {
	if m == nil {
		return func() {}
	}
	m.activeGenerations.Inc()
	return m.activeGenerations.Dec
}

// RecordGeneration records a classified generation outcome.
func (m *MetricsService) RecordGeneration(success, simulated bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.generationTotal.WithLabelValues(outcome, fmt.Sprintf("%t", simulated)).Inc()
	m.generationDuration.Observe(duration.Seconds())
}

// RecordSuggestion counts a faculty suggestion request.
func (m *MetricsService) RecordSuggestion(success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.suggestionTotal.WithLabelValues(outcome).Inc()
}

// RecordExport counts a rendered export. Mode is "sync" or "async".
func (m *MetricsService) RecordExport(format, mode string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.exportTotal.WithLabelValues(format, mode, outcome).Inc()
}
