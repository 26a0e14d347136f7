package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPLatency      *prometheus.HistogramVec
	TaskAppends      *prometheus.CounterVec
	StoredTasks      prometheus.Gauge
	UpstreamFetches  *prometheus.CounterVec
	UpstreamLatency  prometheus.Histogram
	FeedSubscribers  prometheus.Gauge
	FeedDroppedEvent prometheus.Counter
}

// NewMetrics registers the instruments on a private registry so independent
// servers (and tests) never collide on metric names.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"}),
		TaskAppends: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_appends_total",
			Help:      "Append attempts by outcome.",
		}, []string{"outcome"}),
		StoredTasks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_tasks",
			Help:      "Number of tasks in the local task list.",
		}),
		UpstreamFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_fetches_total",
			Help:      "Upstream task fetches by outcome.",
		}, []string{"outcome"}),
		UpstreamLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_latency_ms",
			Help:      "Latency of upstream task fetches in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000, 30000},
		}),
		FeedSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_subscribers",
			Help:      "Open live task feed connections.",
		}),
		FeedDroppedEvent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_dropped_events_total",
			Help:      "Feed events dropped because a subscriber was not keeping up.",
		}),
	}
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveUpstreamFetch(outcome string, d time.Duration) {
	m.UpstreamFetches.WithLabelValues(outcome).Inc()
	m.UpstreamLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the private registry for inspection.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
