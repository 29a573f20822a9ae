// Package metrics holds the service's Prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gemvault"

type Metrics struct {
	HoldsGranted    prometheus.Counter
	HoldsReclaimed  prometheus.Counter
	OrdersConfirmed prometheus.Counter

	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		HoldsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "holds_granted_total",
			Help:      "Items transitioned into hold.",
		}),
		HoldsReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "holds_reclaimed_total",
			Help:      "Expired holds reclaimed by the lazy sweep.",
		}),
		OrdersConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_confirmed_total",
			Help:      "Orders confirmed by an admin.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
	}

	prometheus.MustRegister(
		m.HoldsGranted,
		m.HoldsReclaimed,
		m.OrdersConfirmed,
		m.Requests,
		m.LatencyMS,
	)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}
