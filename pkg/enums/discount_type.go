package enums

import (
	"fmt"
	"strings"
)

// DiscountType selects how a coupon changes the priced cart.
type DiscountType string

const (
	DiscountTypeFixedAmount  DiscountType = "fixed_amount"
	DiscountTypePercentage   DiscountType = "percentage"
	DiscountTypeFreeShipping DiscountType = "free_shipping"
	DiscountTypeNoTax        DiscountType = "no_tax"
	DiscountTypeFullDiscount DiscountType = "full_discount"
)

var validDiscountTypes = []DiscountType{
	DiscountTypeFixedAmount,
	DiscountTypePercentage,
	DiscountTypeFreeShipping,
	DiscountTypeNoTax,
	DiscountTypeFullDiscount,
}

// String implements fmt.Stringer.
func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType. Matching ignores
// case and surrounding whitespace.
func ParseDiscountType(value string) (DiscountType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDiscountTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}
