package orders

import (
	"github.com/angelmondragon/checkout-bridge/pkg/db/models"
	"github.com/angelmondragon/checkout-bridge/pkg/types"
)

// CheckoutPayload is the JSON document process_stripe_webhook consumes.
type CheckoutPayload struct {
	Order OrderPayload  `json:"order"`
	Items []ItemPayload `json:"items"`
}

type OrderPayload struct {
	ID              string         `json:"id"`
	UserID          *string        `json:"user_id"`
	StripeSessionID string         `json:"stripe_session_id"`
	Status          string         `json:"status"`
	Currency        string         `json:"currency"`
	SubtotalCents   int64          `json:"subtotal_cents"`
	TaxCents        int64          `json:"tax_cents"`
	DiscountCents   int64          `json:"discount_cents"`
	ShippingCents   int64          `json:"shipping_cents"`
	ShippingName    *string        `json:"shipping_name"`
	TotalCents      int64          `json:"total_cents"`
	ShippingAddress *types.Address `json:"shipping_address"`
	CustomerEmail   *string        `json:"customer_email"`
	CustomerName    *string        `json:"customer_name"`
	CouponID        *string        `json:"coupon_id"`
	CouponCode      *string        `json:"coupon_code"`
}

type ItemPayload struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"product_id"`
	Name           string  `json:"name"`
	Quantity       int64   `json:"quantity"`
	UnitPriceCents int64   `json:"price_cents"`
	ImageURL       *string `json:"image_url"`
}

// NewCheckoutPayload flattens an order and its items for the stored procedure.
func NewCheckoutPayload(order models.Order, items []models.OrderItem) CheckoutPayload {
	payload := CheckoutPayload{
		Order: OrderPayload{
			ID:              order.ID,
			UserID:          order.UserID,
			StripeSessionID: order.StripeSessionID,
			Status:          string(order.Status),
			Currency:        order.Currency,
			SubtotalCents:   order.SubtotalCents,
			TaxCents:        order.TaxCents,
			DiscountCents:   order.DiscountCents,
			ShippingCents:   order.ShippingCents,
			ShippingName:    order.ShippingName,
			TotalCents:      order.TotalCents,
			ShippingAddress: order.ShippingAddress,
			CustomerEmail:   order.CustomerEmail,
			CustomerName:    order.CustomerName,
			CouponID:        order.CouponID,
			CouponCode:      order.CouponCode,
		},
		Items: make([]ItemPayload, 0, len(items)),
	}
	for _, item := range items {
		payload.Items = append(payload.Items, ItemPayload{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			ImageURL:       item.ImageURL,
		})
	}
	return payload
}
