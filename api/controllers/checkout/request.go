package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	checkoutsvc "github.com/angelmondragon/checkout-bridge/internal/checkout"
	"github.com/angelmondragon/checkout-bridge/internal/pricing"
	"github.com/angelmondragon/checkout-bridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-bridge/pkg/errors"
)

// cartItem mirrors the storefront cart line.
type cartItem struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Price       *int64 `json:"price" validate:"required,min=0,max=99999999"`
	Quantity    *int64 `json:"quantity" validate:"required,min=1"`
}

// couponPayload is a coupon the storefront already validated.
type couponPayload struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type" validate:"required"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

type createSessionRequest struct {
	Items          []cartItem     `json:"items" validate:"required,min=1,dive"`
	UserID         string         `json:"userId"`
	Email          string         `json:"email" validate:"omitempty,email"`
	ShippingOption string         `json:"shippingOption"`
	Coupon         *couponPayload `json:"coupon"`
}

func (req createSessionRequest) toInput(origin string) (checkoutsvc.CreateSessionInput, error) {
	tier, err := enums.ParseShippingTier(req.ShippingOption)
	if err != nil {
		return checkoutsvc.CreateSessionInput{}, pkgerrors.New(pkgerrors.CodeValidation, err.Error()).
			WithDetails(map[string]string{"shippingOption": fmt.Sprintf("must be %q or %q", enums.ShippingTierStandard, enums.ShippingTierExpress)})
	}

	items := make([]pricing.Item, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, pricing.Item{
			ProductID:      strings.TrimSpace(item.ID),
			Name:           strings.TrimSpace(item.Name),
			Description:    strings.TrimSpace(item.Description),
			Image:          strings.TrimSpace(item.Image),
			UnitPriceCents: *item.Price,
			Quantity:       *item.Quantity,
		})
	}

	input := checkoutsvc.CreateSessionInput{
		Items:          items,
		UserID:         req.UserID,
		Email:          req.Email,
		ShippingOption: tier,
		Origin:         origin,
	}

	if req.Coupon != nil {
		discountType, err := enums.ParseDiscountType(req.Coupon.DiscountType)
		if err != nil {
			return checkoutsvc.CreateSessionInput{}, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		input.Coupon = &pricing.Coupon{
			ID:            strings.TrimSpace(req.Coupon.ID),
			Code:          strings.TrimSpace(req.Coupon.Code),
			DiscountType:  discountType,
			DiscountValue: req.Coupon.DiscountValue,
		}
	}
	return input, nil
}
