// Package metrics exposes the development backend's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records HTTP traffic and booking outcomes.
type Collector struct {
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	signIns         *prometheus.CounterVec
	appointments    prometheus.Counter
	rateLimitedHits prometheus.Counter
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gobarber_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gobarber_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gobarber_sign_ins_total",
			Help: "POST /sessions outcomes.",
		}, []string{"result"}),
		appointments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gobarber_appointments_created_total",
			Help: "Appointments successfully booked.",
		}),
		rateLimitedHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gobarber_rate_limited_total",
			Help: "Requests rejected with 429.",
		}),
	}

	reg.MustRegister(c.requests, c.latency, c.signIns, c.appointments, c.rateLimitedHits)
	return c
}

// RecordRequest implements middleware.RequestRecorder. Sign-in, booking and
// rate-limit counters are derived from the route and status.
func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(route).Observe(d.Seconds())

	if status == http.StatusTooManyRequests {
		c.rateLimitedHits.Inc()
		return
	}
	switch {
	case method == http.MethodPost && route == "/sessions":
		result := "success"
		if status >= 400 {
			result = "failure"
		}
		c.signIns.WithLabelValues(result).Inc()
	case method == http.MethodPost && route == "/appointments" && status < 300:
		c.appointments.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
