package checkout

import (
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v84"
)

// Stripe metadata keys stamped at session creation and read back by the webhook.
const (
	MetaUserID         = "user_id"
	MetaOrderID        = "order_id"
	MetaTaxAmount      = "tax_amount"
	MetaDiscountAmount = "discount_amount"
	MetaSubtotal       = "subtotal"
	MetaCouponID       = "coupon_id"
	MetaCouponCode     = "coupon_code"
	MetaSkipShipping   = "skip_shipping"
	MetaSkipTax        = "skip_tax"

	// MetaProductID marks genuine cart lines on the Stripe product.
	MetaProductID = "product_id"
)

// SessionMetadata is the typed view of the metadata carried on a checkout session.
type SessionMetadata struct {
	UserID        string
	OrderID       string
	TaxCents      int64
	DiscountCents int64
	SubtotalCents int64
	CouponID      string
	CouponCode    string
	SkipShipping  bool
	SkipTax       bool
}

// Encode renders the metadata as Stripe's string-only map. Absent coupon
// fields are written as empty strings, never omitted.
func (m SessionMetadata) Encode() map[string]string {
	return map[string]string{
		MetaUserID:         m.UserID,
		MetaOrderID:        m.OrderID,
		MetaTaxAmount:      strconv.FormatInt(m.TaxCents, 10),
		MetaDiscountAmount: strconv.FormatInt(m.DiscountCents, 10),
		MetaSubtotal:       strconv.FormatInt(m.SubtotalCents, 10),
		MetaCouponID:       m.CouponID,
		MetaCouponCode:     m.CouponCode,
		MetaSkipShipping:   strconv.FormatBool(m.SkipShipping),
		MetaSkipTax:        strconv.FormatBool(m.SkipTax),
	}
}

// ParseMetadata reads session metadata back. Amounts that fail to parse are zero.
func ParseMetadata(raw map[string]string) SessionMetadata {
	return SessionMetadata{
		UserID:        strings.TrimSpace(raw[MetaUserID]),
		OrderID:       strings.TrimSpace(raw[MetaOrderID]),
		TaxCents:      intOrZero(raw[MetaTaxAmount]),
		DiscountCents: intOrZero(raw[MetaDiscountAmount]),
		SubtotalCents: intOrZero(raw[MetaSubtotal]),
		CouponID:      strings.TrimSpace(raw[MetaCouponID]),
		CouponCode:    strings.TrimSpace(raw[MetaCouponCode]),
		SkipShipping:  boolOrFalse(raw[MetaSkipShipping]),
		SkipTax:       boolOrFalse(raw[MetaSkipTax]),
	}
}

// HasCoupon reports whether a coupon was applied when the session was created.
func (m SessionMetadata) HasCoupon() bool {
	return m.CouponID != ""
}

func intOrZero(value string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func boolOrFalse(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}

// PurchasedItem is a genuine cart line recovered from a session's line items.
type PurchasedItem struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"price"`
	Image          string `json:"image,omitempty"`
}

// PurchasedItems drops the synthetic tax and discount lines, which carry no
// product_id on their product metadata. Line items must be listed with
// data.price.product expanded.
func PurchasedItems(lines []*stripe.LineItem) []PurchasedItem {
	items := make([]PurchasedItem, 0, len(lines))
	for _, line := range lines {
		if line == nil || line.Price == nil || line.Price.Product == nil {
			continue
		}
		product := line.Price.Product
		productID := strings.TrimSpace(product.Metadata[MetaProductID])
		if productID == "" {
			continue
		}

		name := product.Name
		if name == "" {
			name = line.Description
		}
		item := PurchasedItem{
			ProductID:      productID,
			Name:           name,
			Quantity:       line.Quantity,
			UnitPriceCents: line.Price.UnitAmount,
		}
		if len(product.Images) > 0 {
			item.Image = product.Images[0]
		}
		items = append(items, item)
	}
	return items
}
