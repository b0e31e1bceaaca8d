package orders

import (
	"context"

	"github.com/angelmondragon/checkout-bridge/pkg/db/models"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	// IncrementCouponUsage bumps the (coupon, user) counter through update_coupon_usage.
	IncrementCouponUsage(ctx context.Context, couponID, userID string) error
	// ProcessCheckout hands the whole order to process_stripe_webhook, which
	// writes the order and its items in one transaction.
	ProcessCheckout(ctx context.Context, payload CheckoutPayload) error
}
