// Package metrics exposes Prometheus metrics for the HTTP API and its
// integrations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Registry holds all API metrics. A nil *Registry records nothing.
type Registry struct {
	reg *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Integration metrics
	Uploads *prometheus.CounterVec
	Emails  *prometheus.CounterVec
	Exports *prometheus.CounterVec
}

// New creates a registry with the API metrics plus the Go runtime and
// process collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "File uploads by destination and result",
		}, []string{"destination", "result"}),
		Emails: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "emails_total",
			Help: "Emails by provider and result",
		}, []string{"provider", "result"}),
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exports_total",
			Help: "Generated downloads by format",
		}, []string{"format"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveRequest records one served HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordUpload counts an upload attempt.
func (r *Registry) RecordUpload(destination string, err error) {
	if r == nil {
		return
	}
	r.Uploads.WithLabelValues(destination, result(err)).Inc()
}

// RecordEmail counts a send attempt.
func (r *Registry) RecordEmail(provider string, err error) {
	if r == nil {
		return
	}
	r.Emails.WithLabelValues(provider, result(err)).Inc()
}

// RecordExport counts a generated download.
func (r *Registry) RecordExport(format string) {
	if r == nil {
		return
	}
	r.Exports.WithLabelValues(format).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
