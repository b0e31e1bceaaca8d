package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v84"
)

type fakeGateway struct {
	created   *stripe.CheckoutSessionParams
	createErr error
	session   *stripe.CheckoutSession
	getErr    error
	getParams *stripe.CheckoutSessionParams
	lines     []*stripe.LineItem
	listErr   error
	listed    *stripe.CheckoutSessionListLineItemsParams
}

func (f *fakeGateway) Create(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/c/pay/cs_test_123"}, nil
}

func (f *fakeGateway) Get(_ context.Context, _ string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.getParams = params
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

func (f *fakeGateway) ListLineItems(_ context.Context, params *stripe.CheckoutSessionListLineItemsParams) ([]*stripe.LineItem, error) {
	f.listed = params
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.lines, nil
}

func productLine(productID, name string, unit, qty int64, image string) *stripe.LineItem {
	product := &stripe.Product{Name: name, Metadata: map[string]string{}}
	if productID != "" {
		product.Metadata[MetaProductID] = productID
	}
	if image != "" {
		product.Images = []string{image}
	}
	return &stripe.LineItem{
		Description: name,
		Quantity:    qty,
		AmountTotal: unit * qty,
		Price:       &stripe.Price{UnitAmount: unit, Product: product},
	}
}
