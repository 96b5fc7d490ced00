package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Plans counts planning runs by outcome
	Plans = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "plans_total", Help: "Planning runs by status."},
		[]string{"status"},
	)
	// PlanDuration records end-to-end planning time in seconds
	PlanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "plan_duration_seconds", Help: "Planning run duration in seconds.", Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5}},
	)
	// PlanSwaps counts committed optimizer swaps
	PlanSwaps = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "plan_swaps_total", Help: "Committed passenger swaps across all plans."},
	)
	// PlanUnassigned tracks kids left without a ride per plan
	PlanUnassigned = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "plan_unassigned_kids", Help: "Unassigned kids per plan.", Buckets: []float64{0, 1, 2, 3, 5, 10, 20}},
	)

	// WebhookDeliveries counts webhook delivery outcomes by event type and status
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	// WebhookLatency tracks webhook delivery latencies in milliseconds
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Plans)
		Registry.MustRegister(PlanDuration)
		Registry.MustRegister(PlanSwaps)
		Registry.MustRegister(PlanUnassigned)
		Registry.MustRegister(WebhookDeliveries)
		Registry.MustRegister(WebhookLatency)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
