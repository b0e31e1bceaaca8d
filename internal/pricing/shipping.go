package pricing

import "github.com/angelmondragon/checkout-bridge/pkg/enums"

// ShippingOption is one fixed-amount shipping rate offered at checkout.
type ShippingOption struct {
	Tier        enums.ShippingTier
	DisplayName string
	AmountCents int64
	MinDays     int64
	MaxDays     int64
}

var shippingOptions = []ShippingOption{
	{Tier: enums.ShippingTierStandard, DisplayName: "Standard Shipping", AmountCents: 599, MinDays: 5, MaxDays: 7},
	{Tier: enums.ShippingTierExpress, DisplayName: "Express Shipping", AmountCents: 1499, MinDays: 2, MaxDays: 3},
}

// ShippingOptions returns both tiers with the preferred one first; Stripe
// preselects the first option.
func ShippingOptions(preferred enums.ShippingTier) []ShippingOption {
	out := make([]ShippingOption, 0, len(shippingOptions))
	for _, opt := range shippingOptions {
		if opt.Tier == preferred {
			out = append(out, opt)
		}
	}
	for _, opt := range shippingOptions {
		if opt.Tier != preferred {
			out = append(out, opt)
		}
	}
	return out
}
