package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reimburse"

// Registry owns every collector the claims service records.
type Registry struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	confidence      *prometheus.HistogramVec
	spreadsheets    prometheus.Counter
}

// New builds a registry with process and Go runtime collectors.
func New() *Registry {
	registry := prometheus.NewRegistry()
	r := &Registry{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		confidence: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "receipt",
			Name:      "confidence",
			Help:      "Receipt extraction confidence by detected category.",
			Buckets:   []float64{0, 30, 40, 60, 70, 90, 100},
		}, []string{"category"}),
		spreadsheets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claim",
			Name:      "spreadsheets_total",
			Help:      "Claim spreadsheets generated.",
		}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.requests,
		r.requestDuration,
		r.confidence,
		r.spreadsheets,
	)
	return r
}

// ObserveRequest records one finished HTTP request.
func (r *Registry) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveExtraction records the confidence of one receipt extraction.
func (r *Registry) ObserveExtraction(category string, confidence int) {
	if r == nil {
		return
	}
	r.confidence.WithLabelValues(category).Observe(float64(confidence))
}

// SpreadsheetGenerated counts one rendered claim workbook.
func (r *Registry) SpreadsheetGenerated() {
	if r == nil {
		return
	}
	r.spreadsheets.Inc()
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
