// Package metrics holds the Prometheus collectors of the account service and
// the HTTP server exposing them together with health probes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	tokenRejections prometheus.Counter
}

// New creates a private registry with the Go and process collectors and the
// service's own metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_requests_total",
				Help: "Total number of account service requests by method and status code",
			},
			[]string{"method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accounts_request_duration_seconds",
				Help:    "Account service request latency by method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		tokenRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accounts_token_rejections_total",
			Help: "Total number of bearer tokens rejected as invalid",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.tokenRejections)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one finished call.
func (m *Metrics) ObserveRequest(method, code string, d time.Duration) {
	m.requests.WithLabelValues(method, code).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) TokenRejected() {
	m.tokenRejections.Inc()
}
