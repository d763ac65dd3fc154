// Package metrics exposes Prometheus instruments for the HTTP API, the
// booking flow and the external gateways.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhire_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhire_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventhire_http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhire_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	// Booking
	ServiceRequestTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhire_service_request_transitions_total",
			Help: "Service request status transitions",
		},
		[]string{"to"},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhire_messages_sent_total",
			Help: "Messages posted to conversations",
		},
		[]string{"sender_type"},
	)

	// Payments
	PaymentIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhire_payment_intents_total",
			Help: "Payment intent outcomes by provider",
		},
		[]string{"provider", "outcome"},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhire_payment_webhook_events_total",
			Help: "Payment webhook deliveries by type and result",
		},
		[]string{"type", "result"},
	)

	GatewayCalls = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhire_gateway_call_duration_seconds",
			Help:    "Latency of calls to external gateways",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"gateway", "operation", "result"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eventhire_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhire_emails_sent_total",
			Help: "Emails handed to the provider",
		},
		[]string{"provider", "template", "result"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhire_events_published_total",
			Help: "Domain events published",
		},
		[]string{"type", "result"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventhire_websocket_connections",
			Help: "Open websocket connections",
		},
	)

	WorkerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhire_worker_runs_total",
			Help: "Background worker iterations",
		},
		[]string{"worker", "result"},
	)

	WorkerAffected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhire_worker_affected_rows_total",
			Help: "Rows changed by background workers",
		},
		[]string{"worker"},
	)
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
}

func RecordGatewayCall(gateway, operation string, duration time.Duration, err error) {
	GatewayCalls.WithLabelValues(gateway, operation, result(err)).Observe(duration.Seconds())
}

func RecordEmail(provider, template string, err error) {
	EmailsSent.WithLabelValues(provider, template, result(err)).Inc()
}

func RecordEventPublished(eventType string, err error) {
	EventsPublished.WithLabelValues(eventType, result(err)).Inc()
}

func RecordWorkerRun(worker string, affected int64, err error) {
	WorkerRuns.WithLabelValues(worker, result(err)).Inc()
	if affected > 0 {
		WorkerAffected.WithLabelValues(worker).Add(float64(affected))
	}
}
