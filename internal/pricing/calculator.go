package pricing

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/checkout-bridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-bridge/pkg/errors"
)

// TaxRate is the fixed sales tax rate of the store's jurisdiction.
var TaxRate = decimal.RequireFromString("0.08875")

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// Item is one cart line as submitted by the storefront. Prices are in cents.
type Item struct {
	ProductID      string
	Name           string
	Description    string
	Image          string
	UnitPriceCents int64
	Quantity       int64
}

// Coupon is an already-validated coupon; only its discount fields matter here.
type Coupon struct {
	ID            string
	Code          string
	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
}

// Quote is the priced cart. It is never stored directly; its fields travel to
// the webhook as Stripe session metadata.
type Quote struct {
	SubtotalCents int64
	TaxCents      int64
	DiscountCents int64
	SkipShipping  bool
	SkipTax       bool
}

// IncludesTaxLine reports whether a synthetic tax line is sent to Stripe.
// A shipping-skipping coupon also drops the tax line even though the tax
// amount itself is unchanged; storefront totals depend on this.
func (q Quote) IncludesTaxLine() bool {
	return !q.SkipShipping && q.TaxCents > 0
}

// IncludesDiscountLine reports whether a negative discount line is sent to Stripe.
func (q Quote) IncludesDiscountLine() bool {
	return q.DiscountCents > 0
}

// IncludesShipping reports whether shipping options are attached to the session.
func (q Quote) IncludesShipping() bool {
	return !q.SkipShipping
}

// Calculate prices the cart. It fails with a validation error for an empty
// cart or a line without a usable price or quantity.
func Calculate(items []Item, coupon *Coupon) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "items must be a non-empty array")
	}

	var quote Quote
	for i, item := range items {
		if item.Quantity < 1 {
			return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].quantity must be a positive integer", i))
		}
		if item.UnitPriceCents < 0 {
			return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].price must not be negative", i))
		}
		subtotal, ok := addLine(quote.SubtotalCents, item.UnitPriceCents, item.Quantity)
		if !ok {
			return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d] price times quantity exceeds the supported cart total", i))
		}
		quote.SubtotalCents = subtotal
	}

	if coupon != nil {
		if err := applyCoupon(&quote, *coupon); err != nil {
			return Quote{}, err
		}
	}

	if !quote.SkipTax {
		quote.TaxCents = Tax(quote.SubtotalCents)
	}
	return quote, nil
}

func applyCoupon(quote *Quote, coupon Coupon) error {
	switch coupon.DiscountType {
	case enums.DiscountTypeFixedAmount:
		quote.DiscountCents = clamp(coupon.DiscountValue.Round(0).IntPart(), quote.SubtotalCents)
	case enums.DiscountTypePercentage:
		amount := coupon.DiscountValue.Div(hundred).Mul(decimal.NewFromInt(quote.SubtotalCents))
		quote.DiscountCents = clamp(amount.Round(0).IntPart(), quote.SubtotalCents)
	case enums.DiscountTypeFreeShipping:
		quote.SkipShipping = true
	case enums.DiscountTypeNoTax:
		quote.SkipTax = true
	case enums.DiscountTypeFullDiscount:
		quote.SkipShipping = true
		quote.SkipTax = true
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported coupon discount type %q", coupon.DiscountType))
	}
	return nil
}

// Tax returns round(subtotal × TaxRate) in cents. Exact half-cent ties round
// down, so 2000 yields 177.
func Tax(subtotalCents int64) int64 {
	if subtotalCents <= 0 {
		return 0
	}
	exact := decimal.NewFromInt(subtotalCents).Mul(TaxRate)
	whole := exact.Floor()
	if exact.Sub(whole).GreaterThan(half) {
		whole = whole.Add(decimal.NewFromInt(1))
	}
	return whole.IntPart()
}

// addLine returns sum + price*qty for non-negative operands, reporting false
// when the result does not fit in an int64.
func addLine(sum, price, qty int64) (int64, bool) {
	hi, lo := bits.Mul64(uint64(price), uint64(qty))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	line := int64(lo)
	if sum > math.MaxInt64-line {
		return 0, false
	}
	return sum + line, true
}

func clamp(amount, ceiling int64) int64 {
	if amount < 0 {
		return 0
	}
	if amount > ceiling {
		return ceiling
	}
	return amount
}
