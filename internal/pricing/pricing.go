package pricing

import "github.com/shopspring/decimal"

// Breakdown is the full path from raw subtotal to the payable total.
type Breakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Surcharge      Surcharge       `json:"-"`
	Surcharges     decimal.Decimal `json:"surcharges"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// Finalize applies additionals then discount to subtotal. Only Total is rounded to two
// places; Subtotal, Surcharges and DiscountAmount are rounded copies kept for display.
func Finalize(subtotal decimal.Decimal, additionals *Additionals, discount decimal.Decimal, discountType DiscountType) Breakdown {
	sur := ApplyAdditionals(subtotal, additionals)
	final := ApplyDiscount(sur.Adjusted, discount, discountType)

	return Breakdown{
		Subtotal:       Round2(subtotal),
		Surcharge:      sur,
		Surcharges:     Round2(sur.Total()),
		DiscountAmount: Round2(sur.Adjusted.Sub(final)),
		Total:          Round2(final),
	}
}

// QuoteItems prices an item-based budget. When unitPrice is set every item is priced with it.
func QuoteItems(items []Item, unitPrice *decimal.Decimal, discount decimal.Decimal, discountType DiscountType) (ItemsResult, Breakdown) {
	if unitPrice != nil {
		items = ApplyUnitPrice(items, *unitPrice)
	}
	res := AggregateItems(items)
	return res, Finalize(res.Subtotal, nil, discount, discountType)
}

// QuotePhases prices a complete budget.
func QuotePhases(phases []Phase, additionals *Additionals, discount decimal.Decimal, discountType DiscountType) (Composition, Breakdown) {
	comp := ComposeBudget(phases)
	return comp, Finalize(comp.Total, additionals, discount, discountType)
}
