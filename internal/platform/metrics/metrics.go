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

// Metrics holds process-wide HTTP metrics. Module metrics live next to their
// module and register on the same Registry.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
}

// New creates a registry with Go/process collectors and the HTTP metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oncofeliz_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and method",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "method"}),
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oncofeliz_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
	}
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
