package enums

import (
	"fmt"
	"strings"
)

// ShippingTier names one of the fixed shipping rates offered at checkout.
type ShippingTier string

const (
	ShippingTierStandard ShippingTier = "standard"
	ShippingTierExpress  ShippingTier = "express"
)

var validShippingTiers = []ShippingTier{
	ShippingTierStandard,
	ShippingTierExpress,
}

// String implements fmt.Stringer.
func (s ShippingTier) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingTier.
func (s ShippingTier) IsValid() bool {
	for _, candidate := range validShippingTiers {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingTier converts raw input into a ShippingTier; empty input yields standard.
func ParseShippingTier(value string) (ShippingTier, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return ShippingTierStandard, nil
	}
	for _, candidate := range validShippingTiers {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping option %q", value)
}
