// Package metrics exposes Prometheus collectors for the HTTP API, the
// classifier chain and the live feed.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Classifier metrics
	classifierRequests *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec

	// Ingest metrics
	recordsIngested prometheus.Counter
	billsDetected   prometheus.Counter
	budgetsExceeded prometheus.Counter

	// Feed metrics
	feedClients   prometheus.Gauge
	feedPublished *prometheus.CounterVec
	feedDropped   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics instance on its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendsense_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spendsense_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		classifierRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendsense_classifier_requests_total",
				Help: "Classification requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "spendsense_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),

		recordsIngested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spendsense_records_ingested_total",
				Help: "Total number of SMS records stored",
			},
		),

		billsDetected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spendsense_bills_detected_total",
				Help: "Total number of new bills detected in SMS",
			},
		),

		budgetsExceeded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spendsense_budgets_exceeded_total",
				Help: "Total number of budget overrun notifications",
			},
		),

		feedClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spendsense_feed_clients",
				Help: "Number of connected feed websocket clients",
			},
		),

		feedPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendsense_feed_events_total",
				Help: "Feed events published by type",
			},
			[]string{"type"},
		),

		feedDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendsense_feed_dropped_total",
				Help: "Feed events dropped by reason",
			},
			[]string{"reason"},
		),

		registry: registry,
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.classifierRequests,
		m.breakerState,
		m.recordsIngested,
		m.billsDetected,
		m.budgetsExceeded,
		m.feedClients,
		m.feedPublished,
		m.feedDropped,
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ClassifierRequest counts one classification attempt.
func (m *Metrics) ClassifierRequest(provider, outcome string) {
	m.classifierRequests.WithLabelValues(provider, outcome).Inc()
}

// BreakerState sets the gauge for a named circuit breaker.
func (m *Metrics) BreakerState(name string, state int) {
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// RecordsIngested adds n stored records.
func (m *Metrics) RecordsIngested(n int) {
	m.recordsIngested.Add(float64(n))
}

// BillDetected counts a newly stored bill.
func (m *Metrics) BillDetected() {
	m.billsDetected.Inc()
}

// BudgetExceeded counts an overrun notification.
func (m *Metrics) BudgetExceeded() {
	m.budgetsExceeded.Inc()
}

// FeedClients moves the connected-clients gauge by delta.
func (m *Metrics) FeedClients(delta int) {
	m.feedClients.Add(float64(delta))
}

// FeedPublished counts an event accepted by the feed.
func (m *Metrics) FeedPublished(eventType string) {
	m.feedPublished.WithLabelValues(eventType).Inc()
}

// FeedDropped counts an event the feed could not deliver.
func (m *Metrics) FeedDropped(reason string) {
	m.feedDropped.WithLabelValues(reason).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request metrics labelled by the matched chi route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.RecordHTTPRequest(r.Method, route, strconv.Itoa(wrapped.statusCode), time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack lets the websocket upgrade pass through the middleware.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not support http.Hijacker")
}
