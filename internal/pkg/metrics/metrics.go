// internal/pkg/metrics/metrics.go
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Metrics holds Prometheus collectors for HTTP traffic and the order funnel
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge

	checkoutsTotal    *prometheus.CounterVec
	orderValue        *prometheus.HistogramVec
	statusTransitions *prometheus.CounterVec
	trackingLookups   *prometheus.CounterVec
}

// New creates collectors on a private registry
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "storefront"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		requestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		checkoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkouts_total",
				Help:      "Checkout attempts by outcome",
			},
			[]string{"outcome", "reason"},
		),
		orderValue: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "order_value_minor_units",
				Help:      "Order totals in minor currency units",
				Buckets:   prometheus.ExponentialBuckets(1000, 2, 12),
			},
			[]string{"customer"},
		),
		statusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_status_transitions_total",
				Help:      "Order status changes",
			},
			[]string{"from", "to"},
		),
		trackingLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tracking_lookups_total",
				Help:      "Order tracking lookups by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.requestsInFlight,
		m.checkoutsTotal,
		m.orderValue,
		m.statusTransitions,
		m.trackingLookups,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request metrics labelled by route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.requestsInFlight.Inc()
		defer m.requestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// CheckoutSucceeded implements checkout.Recorder
func (m *Metrics) CheckoutSucceeded(total int64, guest bool) {
	customer := "user"
	if guest {
		customer = "guest"
	}
	m.checkoutsTotal.WithLabelValues("success", "").Inc()
	m.orderValue.WithLabelValues(customer).Observe(float64(total))
}

// CheckoutFailed implements checkout.Recorder
func (m *Metrics) CheckoutFailed(reason string) {
	m.checkoutsTotal.WithLabelValues("failure", reason).Inc()
}

// TrackingLookup counts a tracking request by result code
func (m *Metrics) TrackingLookup(result string) {
	m.trackingLookups.WithLabelValues(result).Inc()
}

// Name implements notification.Sink
func (m *Metrics) Name() string { return "metrics" }

// OrderPlaced implements notification.Sink. Placement is counted by the
// checkout recorder.
func (m *Metrics) OrderPlaced(context.Context, *order.Order) error { return nil }

// OrderStatusChanged implements notification.Sink
func (m *Metrics) OrderStatusChanged(_ context.Context, o *order.Order, from order.Status) error {
	m.statusTransitions.WithLabelValues(string(from), string(o.Status)).Inc()
	return nil
}
