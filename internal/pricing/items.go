package pricing

import "github.com/shopspring/decimal"

// Item is a priced line of an m2, render or modeling budget.
type Item struct {
	PricePerUnit decimal.Decimal
	Quantity     decimal.Decimal
}

// Total is price × quantity, unrounded.
func (i Item) Total() decimal.Decimal {
	return i.PricePerUnit.Mul(i.Quantity)
}

// ItemsResult holds the per-item totals in input order and their sum.
type ItemsResult struct {
	Totals   []decimal.Decimal
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// AggregateItems computes each item's total and the rounded grand total.
func AggregateItems(items []Item) ItemsResult {
	res := ItemsResult{Totals: make([]decimal.Decimal, len(items)), Subtotal: decimal.Zero}
	for i, it := range items {
		t := it.Total()
		res.Totals[i] = t
		res.Subtotal = res.Subtotal.Add(t)
	}
	res.Total = Round2(res.Subtotal)
	return res
}

// ApplyUnitPrice returns a copy of items priced with a single unit price, so every item's
// total is its area share of unitPrice × Σ quantity.
func ApplyUnitPrice(items []Item, unitPrice decimal.Decimal) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{PricePerUnit: unitPrice, Quantity: it.Quantity}
	}
	return out
}
