package pricing

import "github.com/shopspring/decimal"

// DiscountType selects how a discount is read.
type DiscountType string

const (
	DiscountPercentual DiscountType = "percentual"
	DiscountFixed      DiscountType = "valor"
)

// ApplyDiscount returns subtotal after discount, never below zero. Unrecognized discount
// types and non-positive discounts leave the subtotal unchanged.
func ApplyDiscount(subtotal, discount decimal.Decimal, discountType DiscountType) decimal.Decimal {
	if !discount.IsPositive() {
		return subtotal
	}

	var final decimal.Decimal
	switch discountType {
	case DiscountPercentual:
		final = subtotal.Mul(hundred.Sub(discount)).Div(hundred)
	case DiscountFixed:
		final = subtotal.Sub(discount)
	default:
		return subtotal
	}

	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}
