// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is what the lending service, the HTTP layer and the
// maintenance sweeper record into.
type MetricsCollector interface {
	RecordItemCreated()
	RecordItemDeleted()
	RecordRequestCreated()
	RecordRequestTransition(status string)
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordTokensPruned(count int64)
}

// Collector is the Prometheus implementation of MetricsCollector.
type Collector struct {
	itemsCreated       prometheus.Counter
	itemsDeleted       prometheus.Counter
	requestsCreated    prometheus.Counter
	requestTransitions *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpLatency        prometheus.Histogram
	tokensPruned       prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		itemsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "borrow_items_created_total",
			Help: "Total number of items listed.",
		}),
		itemsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "borrow_items_deleted_total",
			Help: "Total number of items deleted.",
		}),
		requestsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "borrow_requests_created_total",
			Help: "Total number of borrow requests created.",
		}),
		requestTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "borrow_request_transitions_total",
			Help: "Borrow request status changes by target status.",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "borrow_http_requests_total",
			Help: "HTTP responses by method and status code.",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "borrow_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		tokensPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "borrow_revoked_tokens_pruned_total",
			Help: "Expired token revocations removed by the sweeper.",
		}),
	}

	reg.MustRegister(
		c.itemsCreated,
		c.itemsDeleted,
		c.requestsCreated,
		c.requestTransitions,
		c.httpRequests,
		c.httpLatency,
		c.tokensPruned,
	)

	return c
}

func (c *Collector) RecordItemCreated() {
	c.itemsCreated.Inc()
}

func (c *Collector) RecordItemDeleted() {
	c.itemsDeleted.Inc()
}

func (c *Collector) RecordRequestCreated() {
	c.requestsCreated.Inc()
}

// RecordRequestTransition counts a request entering status.
func (c *Collector) RecordRequestTransition(status string) {
	c.requestTransitions.WithLabelValues(status).Inc()
}

// RecordHTTPRequest counts a response and observes its latency.
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordTokensPruned(count int64) {
	c.tokensPruned.Add(float64(count))
}

// Nop discards every measurement. It is used when metrics are disabled.
type Nop struct{}

func (Nop) RecordItemCreated() {}
func (Nop) RecordItemDeleted() {}
func (Nop) RecordRequestCreated() {}
func (Nop) RecordRequestTransition(string) {}
func (Nop) RecordHTTPRequest(string, int, time.Duration) {}
func (Nop) RecordTokensPruned(int64) {}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
