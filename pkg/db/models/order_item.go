package models

import "time"

// OrderItem snapshots one purchased product at the price paid.
type OrderItem struct {
	ID             string    `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        string    `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      string    `gorm:"column:product_id;not null"`
	Name           string    `gorm:"column:name;not null"`
	Quantity       int64     `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:price_cents;not null"`
	ImageURL       *string   `gorm:"column:image_url"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
