package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Webhook outcomes recorded by CheckoutMetrics.IncWebhook.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
)

// CheckoutMetrics records checkout session and webhook activity.
type CheckoutMetrics struct {
	sessions *prometheus.CounterVec
	webhooks *prometheus.CounterVec
	gateway  *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Checkout session creation attempts by result.",
	}, []string{"result"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Stripe webhook events by type and outcome.",
	}, []string{"type", "outcome"})
	gateway := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stripe_request_duration_seconds",
		Help:    "Duration of Stripe API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(sessions, webhooks, gateway)
	return &CheckoutMetrics{
		sessions: sessions,
		webhooks: webhooks,
		gateway:  gateway,
	}
}

// IncSession counts a session creation attempt; result is "created" or "failed".
func (c *CheckoutMetrics) IncSession(result string) {
	if c == nil || c.sessions == nil {
		return
	}
	c.sessions.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncWebhook counts a webhook delivery.
func (c *CheckoutMetrics) IncWebhook(eventType, outcome string) {
	if c == nil || c.webhooks == nil {
		return
	}
	c.webhooks.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveGateway records the latency of one Stripe API call.
func (c *CheckoutMetrics) ObserveGateway(operation string, duration time.Duration) {
	if c == nil || c.gateway == nil {
		return
	}
	c.gateway.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
