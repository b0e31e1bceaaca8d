package stripe

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/angelmondragon/checkout-bridge/pkg/metrics"
)

// Sessions is the checkout-session slice of the Stripe API used by the bridge.
type Sessions struct {
	api     session.Client
	metrics *metrics.CheckoutMetrics
}

// NewSessions wraps the checkout session resource. A nil metrics recorder is allowed.
func NewSessions(client *Client, m *metrics.CheckoutMetrics) *Sessions {
	if client == nil {
		return nil
	}
	return &Sessions{api: client.sessions, metrics: m}
}

func (s *Sessions) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	defer s.observe("create_session", time.Now())
	return s.api.New(params)
}

func (s *Sessions) Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params == nil {
		params = &stripe.CheckoutSessionParams{}
	}
	params.Context = ctx
	defer s.observe("get_session", time.Now())
	return s.api.Get(id, params)
}

// ListLineItems drains the line item list for a session.
func (s *Sessions) ListLineItems(ctx context.Context, params *stripe.CheckoutSessionListLineItemsParams) ([]*stripe.LineItem, error) {
	if params == nil {
		params = &stripe.CheckoutSessionListLineItemsParams{}
	}
	params.Context = ctx
	defer s.observe("list_line_items", time.Now())

	iter := s.api.ListLineItems(params)
	var items []*stripe.LineItem
	for iter.Next() {
		items = append(items, iter.LineItem())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Sessions) observe(op string, start time.Time) {
	s.metrics.ObserveGateway(op, time.Since(start))
}
