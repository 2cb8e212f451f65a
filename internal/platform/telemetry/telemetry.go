// Package telemetry exposes the service's Prometheus metrics: an HTTP
// request counter and latency histogram fed by echo middleware, plus domain
// counters for census store fetches and discharge transitions.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wardtrack"

// Metrics holds the service's collectors behind a private registry so tests
// can run side by side without default-registry collisions.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fetchesTotal    *prometheus.CounterVec
	dischargesTotal *prometheus.CounterVec
}

// NewMetrics builds and registers all collectors, including the standard Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_fetches_total",
			Help:      "Record store fetches, by source table and outcome.",
		}, []string{"source", "outcome"}),
		dischargesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discharges_total",
			Help:      "Discharge transitions attempted, by record origin and outcome.",
		}, []string{"origin", "outcome"}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.fetchesTotal,
		m.dischargesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the /metrics exposition endpoint.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records a count and latency sample for every request. The route
// template (not the raw path) is used as the label to keep cardinality
// bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := c.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				}
			}

			m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// ObserveFetch records the outcome of a record store fetch for one source
// table.
func (m *Metrics) ObserveFetch(source string, err error) {
	m.fetchesTotal.WithLabelValues(source, outcome(err)).Inc()
}

// ObserveDischarge records the outcome of a discharge transition for one
// record origin.
func (m *Metrics) ObserveDischarge(origin string, err error) {
	m.dischargesTotal.WithLabelValues(origin, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
