package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/checkout-bridge/api/controllers"
	checkoutcontrollers "github.com/angelmondragon/checkout-bridge/api/controllers/checkout"
	webhookcontrollers "github.com/angelmondragon/checkout-bridge/api/controllers/webhooks"
	"github.com/angelmondragon/checkout-bridge/api/middleware"
	checkoutsvc "github.com/angelmondragon/checkout-bridge/internal/checkout"
	"github.com/angelmondragon/checkout-bridge/pkg/config"
	"github.com/angelmondragon/checkout-bridge/pkg/logger"
	"github.com/angelmondragon/checkout-bridge/pkg/metrics"
)

// Dependencies is everything the HTTP surface needs. Leave optional members
// nil rather than assigning typed nil pointers.
type Dependencies struct {
	Checkout      checkoutsvc.Service
	Webhooks      webhookcontrollers.StripeWebhookService
	WebhookGuard  webhookcontrollers.StripeWebhookGuard
	Stripe        interface{ SigningSecret() string }
	HealthChecks  map[string]controllers.Pinger
	HTTPMetrics   *metrics.HTTPMetrics
	MetricsSource prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.Frontend.Origins()),
	)

	r.Get("/", controllers.Root(cfg))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, deps.HealthChecks))
	})

	if deps.MetricsSource != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.MetricsSource, promhttp.HandlerOpts{}))
	}

	r.Post("/create-checkout-session", checkoutcontrollers.CreateSession(deps.Checkout, logg))
	r.Get("/checkout-session/{sessionId}", checkoutcontrollers.SessionDetails(deps.Checkout, logg))

	r.Post("/webhook", webhookcontrollers.StripeWebhook(deps.Webhooks, deps.Stripe, deps.WebhookGuard, logg))

	return r
}
