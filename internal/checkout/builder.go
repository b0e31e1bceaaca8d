package checkout

import (
	"fmt"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/checkout-bridge/internal/pricing"
	"github.com/angelmondragon/checkout-bridge/pkg/enums"
)

const (
	currencyUSD = "usd"

	taxLineName      = "Sales Tax"
	discountLineName = "Discount"
)

var shippingCountries = []string{"US"}

// SessionRequest is everything needed to shape one Stripe checkout session.
type SessionRequest struct {
	Items      []pricing.Item
	Quote      pricing.Quote
	Coupon     *pricing.Coupon
	UserID     string
	Email      string
	OrderID    string
	Shipping   enums.ShippingTier
	SuccessURL string
	CancelURL  string
}

// Metadata returns the values stamped onto the session for the webhook.
func (r SessionRequest) Metadata() SessionMetadata {
	meta := SessionMetadata{
		UserID:        r.UserID,
		OrderID:       r.OrderID,
		TaxCents:      r.Quote.TaxCents,
		DiscountCents: r.Quote.DiscountCents,
		SubtotalCents: r.Quote.SubtotalCents,
		SkipShipping:  r.Quote.SkipShipping,
		SkipTax:       r.Quote.SkipTax,
	}
	if r.Coupon != nil {
		meta.CouponID = r.Coupon.ID
		meta.CouponCode = r.Coupon.Code
	}
	return meta
}

// BuildSessionParams maps a priced cart onto Stripe session creation params.
func BuildSessionParams(req SessionRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		LineItems:          lineItems(req),
		TaxIDCollection: &stripe.CheckoutSessionTaxIDCollectionParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	if req.Coupon == nil {
		params.AllowPromotionCodes = stripe.Bool(true)
	}
	if req.Quote.IncludesShipping() {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(shippingCountries),
		}
		params.ShippingOptions = shippingOptions(req.Shipping)
	}
	for key, value := range req.Metadata().Encode() {
		params.AddMetadata(key, value)
	}
	return params
}

func lineItems(req SessionRequest) []*stripe.CheckoutSessionLineItemParams {
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items)+2)
	for _, item := range req.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(item.Name),
			Metadata: map[string]string{MetaProductID: item.ProductID},
		}
		if item.Description != "" {
			product.Description = stripe.String(item.Description)
		}
		if item.Image != "" {
			product.Images = stripe.StringSlice([]string{item.Image})
		}
		lines = append(lines, priceLine(product, item.UnitPriceCents, item.Quantity))
	}

	if req.Quote.IncludesTaxLine() {
		lines = append(lines, priceLine(&stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:        stripe.String(taxLineName),
			Description: stripe.String(fmt.Sprintf("Sales tax (%s%%)", pricing.TaxRate.Shift(2).String())),
		}, req.Quote.TaxCents, 1))
	}

	if req.Quote.IncludesDiscountLine() {
		name := discountLineName
		if req.Coupon != nil && req.Coupon.Code != "" {
			name = fmt.Sprintf("%s (%s)", discountLineName, req.Coupon.Code)
		}
		lines = append(lines, priceLine(&stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(name),
		}, -req.Quote.DiscountCents, 1))
	}
	return lines
}

func priceLine(product *stripe.CheckoutSessionLineItemPriceDataProductDataParams, unitAmount, quantity int64) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:    stripe.String(currencyUSD),
			ProductData: product,
			UnitAmount:  stripe.Int64(unitAmount),
		},
		Quantity: stripe.Int64(quantity),
	}
}

func shippingOptions(preferred enums.ShippingTier) []*stripe.CheckoutSessionShippingOptionParams {
	tiers := pricing.ShippingOptions(preferred)
	out := make([]*stripe.CheckoutSessionShippingOptionParams, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, &stripe.CheckoutSessionShippingOptionParams{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type:        stripe.String("fixed_amount"),
				DisplayName: stripe.String(tier.DisplayName),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(tier.AmountCents),
					Currency: stripe.String(currencyUSD),
				},
				DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
					Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(tier.MinDays),
					},
					Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(tier.MaxDays),
					},
				},
			},
		})
	}
	return out
}
