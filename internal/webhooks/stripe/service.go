package stripewebhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/checkout-bridge/internal/checkout"
	"github.com/angelmondragon/checkout-bridge/internal/orders"
	"github.com/angelmondragon/checkout-bridge/pkg/config"
	"github.com/angelmondragon/checkout-bridge/pkg/db"
	"github.com/angelmondragon/checkout-bridge/pkg/db/models"
	"github.com/angelmondragon/checkout-bridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-bridge/pkg/errors"
	"github.com/angelmondragon/checkout-bridge/pkg/logger"
	"github.com/angelmondragon/checkout-bridge/pkg/metrics"
	"github.com/angelmondragon/checkout-bridge/pkg/types"
)

const defaultCurrency = "usd"

type ServiceParams struct {
	Gateway         checkout.SessionGateway
	OrdersRepo      orders.Repository
	PersistenceMode string
	Logger          *logger.Logger
	Metrics         *metrics.CheckoutMetrics
}

// Service turns completed checkout sessions into orders.
type Service struct {
	gateway      checkout.SessionGateway
	orders       orders.Repository
	useProcedure bool
	logg         *logger.Logger
	metrics      *metrics.CheckoutMetrics
	newID        func() string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session gateway required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	return &Service{
		gateway:      params.Gateway,
		orders:       params.OrdersRepo,
		useProcedure: config.DBConfig{PersistenceMode: params.PersistenceMode}.UsesProcedure(),
		logg:         params.Logger,
		metrics:      params.Metrics,
		newID:        uuid.NewString,
	}, nil
}

// HandleEvent reconciles checkout.session.completed and ignores every other
// event type. A returned error means Stripe should redeliver.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	eventType := string(event.Type)

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			s.metrics.IncWebhook(eventType, metrics.OutcomeFailed)
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session event")
		}
		outcome, err := s.reconcile(ctx, sess.ID)
		if err != nil {
			s.metrics.IncWebhook(eventType, metrics.OutcomeFailed)
			return err
		}
		s.metrics.IncWebhook(eventType, outcome)
		return nil
	default:
		s.metrics.IncWebhook(eventType, metrics.OutcomeIgnored)
		return nil
	}
}

func (s *Service) reconcile(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	ctx = s.logg.WithSessionID(ctx, sessionID)

	sess, lines, err := checkout.FetchSession(ctx, s.gateway, sessionID)
	if err != nil {
		return "", err
	}

	meta := checkout.ParseMetadata(sess.Metadata)
	if meta.OrderID == "" {
		s.logg.Warn(ctx, "stripe_webhook.session_without_order_id")
		return metrics.OutcomeIgnored, nil
	}
	if _, err := uuid.Parse(meta.OrderID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "order_id", meta.OrderID), "stripe_webhook.session_with_invalid_order_id")
		return metrics.OutcomeIgnored, nil
	}
	ctx = s.logg.WithOrderID(ctx, meta.OrderID)

	order := buildOrder(sess, meta)
	items := s.buildItems(ctx, order.ID, checkout.PurchasedItems(lines))

	if s.useProcedure {
		err = s.orders.ProcessCheckout(ctx, orders.NewCheckoutPayload(order, items))
	} else {
		err = s.orders.CreateOrder(ctx, &order)
	}
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "stripe_webhook.order_already_recorded")
			return metrics.OutcomeDuplicate, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "insert order")
	}

	if !s.useProcedure {
		// The order stays even when its items fail to save.
		if err := s.orders.CreateOrderItems(ctx, items); err != nil {
			s.logg.Error(ctx, "stripe_webhook.order_items_failed", err)
		}
	}

	if meta.HasCoupon() {
		if err := s.orders.IncrementCouponUsage(ctx, meta.CouponID, meta.UserID); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "coupon_id", meta.CouponID), "stripe_webhook.coupon_usage_failed", err)
		}
	}

	s.logg.Info(s.logg.WithField(ctx, "items", len(items)), "stripe_webhook.order_recorded")
	return metrics.OutcomeProcessed, nil
}

func buildOrder(sess *stripe.CheckoutSession, meta checkout.SessionMetadata) models.Order {
	order := models.Order{
		ID:              meta.OrderID,
		UserID:          optional(meta.UserID),
		StripeSessionID: sess.ID,
		Status:          enums.OrderStatusCompleted,
		Currency:        defaultCurrency,
		SubtotalCents:   meta.SubtotalCents,
		TaxCents:        meta.TaxCents,
		DiscountCents:   meta.DiscountCents,
		TotalCents:      sess.AmountTotal,
		ShippingAddress: shippingAddress(sess),
		CouponID:        optional(meta.CouponID),
		CouponCode:      optional(meta.CouponCode),
	}
	if sess.Currency != "" {
		order.Currency = string(sess.Currency)
	}
	if order.SubtotalCents == 0 {
		order.SubtotalCents = sess.AmountSubtotal
	}
	if sess.ShippingCost != nil {
		order.ShippingCents = sess.ShippingCost.AmountTotal
		if sess.ShippingCost.ShippingRate != nil {
			order.ShippingName = optional(sess.ShippingCost.ShippingRate.DisplayName)
		}
	}
	if sess.CustomerDetails != nil {
		order.CustomerEmail = optional(sess.CustomerDetails.Email)
		order.CustomerName = optional(sess.CustomerDetails.Name)
	}
	if order.CustomerEmail == nil {
		order.CustomerEmail = optional(sess.CustomerEmail)
	}
	return order
}

// shippingAddress prefers the collected shipping details and falls back to
// the billing address on the customer details.
func shippingAddress(sess *stripe.CheckoutSession) *types.Address {
	var (
		addr *stripe.Address
		name string
	)
	if info := sess.CollectedInformation; info != nil && info.ShippingDetails != nil {
		addr = info.ShippingDetails.Address
		name = info.ShippingDetails.Name
	}
	if addr == nil && sess.CustomerDetails != nil {
		addr = sess.CustomerDetails.Address
		name = sess.CustomerDetails.Name
	}
	if addr == nil {
		return nil
	}

	out := &types.Address{
		Name:       name,
		Line1:      addr.Line1,
		Line2:      optional(addr.Line2),
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
	}
	if out.IsZero() {
		return nil
	}
	return out
}

// buildItems maps purchased lines to rows, filling missing images from the
// catalog. Catalog lookup failures only cost the images.
func (s *Service) buildItems(ctx context.Context, orderID string, purchased []checkout.PurchasedItem) []models.OrderItem {
	images := s.catalogImages(ctx, purchased)

	items := make([]models.OrderItem, 0, len(purchased))
	for _, p := range purchased {
		image := optional(p.Image)
		if image == nil {
			image = images[p.ProductID]
		}
		items = append(items, models.OrderItem{
			ID:             s.newID(),
			OrderID:        orderID,
			ProductID:      p.ProductID,
			Name:           p.Name,
			Quantity:       p.Quantity,
			UnitPriceCents: p.UnitPriceCents,
			ImageURL:       image,
		})
	}
	return items
}

func (s *Service) catalogImages(ctx context.Context, purchased []checkout.PurchasedItem) map[string]*string {
	var missing []string
	for _, p := range purchased {
		if p.Image == "" {
			missing = append(missing, p.ProductID)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	products, err := s.orders.FindProductsByIDs(ctx, missing)
	if err != nil {
		s.logg.Error(ctx, "stripe_webhook.product_lookup_failed", err)
		return nil
	}
	images := make(map[string]*string, len(products))
	for _, product := range products {
		if product.ImageURL != nil && *product.ImageURL != "" {
			images[product.ID] = product.ImageURL
		}
	}
	return images
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
