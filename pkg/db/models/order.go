package models

import (
	"time"

	"github.com/angelmondragon/checkout-bridge/pkg/enums"
	"github.com/angelmondragon/checkout-bridge/pkg/types"
)

// Order is written once, when Stripe reports the checkout session as completed.
// ID is the order id minted at session creation and carried in session metadata.
type Order struct {
	ID              string            `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *string           `gorm:"column:user_id"`
	StripeSessionID string            `gorm:"column:stripe_session_id;not null;uniqueIndex"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Currency        string            `gorm:"column:currency;type:text;not null;default:'usd'"`
	SubtotalCents   int64             `gorm:"column:subtotal_cents;not null"`
	TaxCents        int64             `gorm:"column:tax_cents;not null;default:0"`
	DiscountCents   int64             `gorm:"column:discount_cents;not null;default:0"`
	ShippingCents   int64             `gorm:"column:shipping_cents;not null;default:0"`
	ShippingName    *string           `gorm:"column:shipping_name"`
	TotalCents      int64             `gorm:"column:total_cents;not null"`
	ShippingAddress *types.Address    `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	CustomerEmail   *string           `gorm:"column:customer_email"`
	CustomerName    *string           `gorm:"column:customer_name"`
	CouponID        *string           `gorm:"column:coupon_id"`
	CouponCode      *string           `gorm:"column:coupon_code"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
