package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/checkout-bridge/internal/pricing"
	"github.com/angelmondragon/checkout-bridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-bridge/pkg/errors"
	"github.com/angelmondragon/checkout-bridge/pkg/logger"
	"github.com/angelmondragon/checkout-bridge/pkg/metrics"
	pkgstripe "github.com/angelmondragon/checkout-bridge/pkg/stripe"
)

// SessionGateway is the Stripe checkout session surface used by this package.
type SessionGateway interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	ListLineItems(ctx context.Context, params *stripe.CheckoutSessionListLineItemsParams) ([]*stripe.LineItem, error)
}

// Service creates checkout sessions and reports on them.
type Service interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error)
	GetSessionDetails(ctx context.Context, sessionID string) (*SessionDetails, error)
}

// CreateSessionInput is a validated storefront checkout request.
type CreateSessionInput struct {
	Items          []pricing.Item
	UserID         string
	Email          string
	ShippingOption enums.ShippingTier
	Coupon         *pricing.Coupon
	// Origin is the caller's Origin header, used when no storefront URL is configured.
	Origin string
}

type CreateSessionResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url,omitempty"`
	OrderID   string `json:"-"`
}

type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SessionDetails is the storefront's view of a checkout session.
type SessionDetails struct {
	Customer      Customer        `json:"customer"`
	Items         []PurchasedItem `json:"items"`
	Total         int64           `json:"total"`
	Shipping      int64           `json:"shipping"`
	Tax           int64           `json:"tax"`
	Subtotal      int64           `json:"subtotal"`
	Discount      int64           `json:"discount"`
	OrderID       string          `json:"orderId"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
}

type service struct {
	gateway SessionGateway
	baseURL string
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
	newID   func() string
}

// NewService builds the checkout service. baseURL may be empty, in which case
// redirects are derived from the request origin.
func NewService(gateway SessionGateway, baseURL string, logg *logger.Logger, m *metrics.CheckoutMetrics) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("session gateway required")
	}
	return &service{
		gateway: gateway,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logg:    logg,
		metrics: m,
		newID:   uuid.NewString,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error) {
	quote, err := pricing.Calculate(input.Items, input.Coupon)
	if err != nil {
		return nil, err
	}

	base, err := s.redirectBase(input.Origin)
	if err != nil {
		return nil, err
	}

	shipping := input.ShippingOption
	if shipping == "" {
		shipping = enums.ShippingTierStandard
	}

	orderID := s.newID()
	ctx = s.logg.WithOrderID(ctx, orderID)

	params := BuildSessionParams(SessionRequest{
		Items:      input.Items,
		Quote:      quote,
		Coupon:     input.Coupon,
		UserID:     strings.TrimSpace(input.UserID),
		Email:      strings.TrimSpace(input.Email),
		OrderID:    orderID,
		Shipping:   shipping,
		SuccessURL: base + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/cart",
	})

	sess, err := s.gateway.Create(ctx, params)
	if err != nil {
		s.metrics.IncSession("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, pkgstripe.ErrorMessage(err))
	}
	s.metrics.IncSession("created")

	ctx = s.logg.WithSessionID(ctx, sess.ID)
	s.logg.Info(ctx, "checkout.session_created")

	return &CreateSessionResult{SessionID: sess.ID, URL: sess.URL, OrderID: orderID}, nil
}

func (s *service) GetSessionDetails(ctx context.Context, sessionID string) (*SessionDetails, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	sess, lines, err := FetchSession(ctx, s.gateway, sessionID)
	if err != nil {
		return nil, err
	}

	meta := ParseMetadata(sess.Metadata)
	details := &SessionDetails{
		Items:         PurchasedItems(lines),
		Total:         sess.AmountTotal,
		Tax:           meta.TaxCents,
		Subtotal:      meta.SubtotalCents,
		Discount:      meta.DiscountCents,
		OrderID:       meta.OrderID,
		Status:        string(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
	}
	if sess.CustomerDetails != nil {
		details.Customer = Customer{Email: sess.CustomerDetails.Email, Name: sess.CustomerDetails.Name}
	}
	if details.Customer.Email == "" {
		details.Customer.Email = sess.CustomerEmail
	}
	if sess.ShippingCost != nil {
		details.Shipping = sess.ShippingCost.AmountTotal
	}
	if details.Subtotal == 0 {
		details.Subtotal = sess.AmountSubtotal
	}
	return details, nil
}

// FetchSession retrieves the authoritative session with its shipping rate and
// every line item with the product expanded.
func FetchSession(ctx context.Context, gateway SessionGateway, sessionID string) (*stripe.CheckoutSession, []*stripe.LineItem, error) {
	getParams := &stripe.CheckoutSessionParams{}
	getParams.AddExpand("shipping_cost.shipping_rate")
	sess, err := gateway.Get(ctx, sessionID, getParams)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, pkgstripe.ErrorMessage(err))
	}

	listParams := &stripe.CheckoutSessionListLineItemsParams{Session: stripe.String(sessionID)}
	listParams.AddExpand("data.price.product")
	listParams.Limit = stripe.Int64(100)
	lines, err := gateway.ListLineItems(ctx, listParams)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, pkgstripe.ErrorMessage(err))
	}
	return sess, lines, nil
}

func (s *service) redirectBase(origin string) (string, error) {
	if s.baseURL != "" {
		return s.baseURL, nil
	}
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cannot derive redirect urls: no storefront url configured and no Origin header")
	}
	return origin, nil
}
