package pricing

import "github.com/shopspring/decimal"

// Additionals are surcharge rules layered onto a complete budget.
type Additionals struct {
	WetAreaQuantity       decimal.Decimal
	DryAreaQuantity       decimal.Decimal
	WetAreaPercentage     decimal.Decimal
	DryAreaPercentage     decimal.Decimal
	DeliveryTimeDays      int
	DeliveryDailyRate     decimal.Decimal
	DisableDeliveryCharge bool
}

// Surcharge is the outcome of ApplyAdditionals. Adjusted is unrounded.
type Surcharge struct {
	Wet      decimal.Decimal
	Dry      decimal.Decimal
	Delivery decimal.Decimal
	Adjusted decimal.Decimal
}

// Total is the sum of all surcharges.
func (s Surcharge) Total() decimal.Decimal {
	return s.Wet.Add(s.Dry).Add(s.Delivery)
}

// ApplyAdditionals adds area and delivery surcharges to subtotal. A nil record passes the
// subtotal through untouched.
//
// Area surcharges scale with each area's share of the total area: a budget that is 40% wet
// area pays 40% of the wet percentage on its subtotal.
func ApplyAdditionals(subtotal decimal.Decimal, a *Additionals) Surcharge {
	s := Surcharge{Wet: decimal.Zero, Dry: decimal.Zero, Delivery: decimal.Zero, Adjusted: subtotal}
	if a == nil {
		return s
	}

	area := a.WetAreaQuantity.Add(a.DryAreaQuantity)
	if area.IsPositive() {
		s.Wet = subtotal.Mul(a.WetAreaPercentage).Div(hundred).Mul(a.WetAreaQuantity).Div(area)
		s.Dry = subtotal.Mul(a.DryAreaPercentage).Div(hundred).Mul(a.DryAreaQuantity).Div(area)
	}

	if !a.DisableDeliveryCharge && a.DeliveryTimeDays > 0 {
		s.Delivery = a.DeliveryDailyRate.Mul(decimal.NewFromInt(int64(a.DeliveryTimeDays)))
	}

	s.Adjusted = subtotal.Add(s.Total())
	return s
}
