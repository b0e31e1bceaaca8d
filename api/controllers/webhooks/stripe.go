package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/checkout-bridge/api/responses"
	pkgerrors "github.com/angelmondragon/checkout-bridge/pkg/errors"
	"github.com/angelmondragon/checkout-bridge/pkg/logger"
	"github.com/angelmondragon/checkout-bridge/pkg/types"
)

const maxWebhookBytes = 1 << 20

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

// StripeWebhookGuard claims event ids ahead of processing. It is optional.
type StripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook verifies and dispatches Stripe events. Every accepted
// delivery, including ignored types and redeliveries, is acknowledged with
// {"received": true}.
func StripeWebhook(svc StripeWebhookService, client stripeClient, guard StripeWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEventWithOptions(payload, sigHeader, client.SigningSecret(), webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeSignature, err, "Webhook Error: "+err.Error()))
			return
		}

		ctx = logg.WithEventID(ctx, event.ID)
		ctx = logg.WithField(ctx, "event_type", string(event.Type))

		claimed := false
		if guard != nil {
			alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
			switch {
			case err != nil:
				// the orders unique index still rejects duplicates
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "stripe_webhook.idempotency_unavailable")
			case alreadyProcessed:
				logg.Info(ctx, "stripe_webhook.redelivery_skipped")
				responses.WriteSuccess(w, types.WebhookAck{Received: true})
				return
			default:
				claimed = true
			}
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			if claimed {
				if delErr := guard.Delete(ctx, event.ID); delErr != nil {
					logg.Warn(logg.WithField(ctx, "error", delErr.Error()), "stripe_webhook.idempotency_release_failed")
				}
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logg.Debug(ctx, "stripe_webhook.acknowledged")
		responses.WriteSuccess(w, types.WebhookAck{Received: true})
	}
}
