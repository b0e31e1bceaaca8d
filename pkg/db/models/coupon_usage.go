package models

import "time"

// CouponUsage counts redemptions per coupon and user. Rows are maintained by
// the update_coupon_usage procedure.
type CouponUsage struct {
	CouponID   string    `gorm:"column:coupon_id;primaryKey"`
	UserID     string    `gorm:"column:user_id;primaryKey"`
	UsageCount int64     `gorm:"column:usage_count;not null;default:0"`
	LastUsedAt time.Time `gorm:"column:last_used_at"`
}

func (CouponUsage) TableName() string {
	return "coupon_usages"
}
