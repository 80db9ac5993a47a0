package cart

import "github.com/shopspring/decimal"

const displayPlaces = 2

// Totals is the money summary shown under the cart.
type Totals struct {
	Count    int
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives total = subtotal - discount + tax. When roundSubtotal is
// set the total is computed from the subtotal as displayed (2 places), matching
// what the cashier sees on screen; otherwise the exact sum is used.
func ComputeTotals(c *Cart, discount, tax decimal.Decimal, roundSubtotal bool) Totals {
	subtotal := c.Subtotal()
	base := subtotal
	if roundSubtotal {
		base = subtotal.Round(displayPlaces)
	}
	return Totals{
		Count:    c.Count(),
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    base.Sub(discount).Add(tax),
	}
}

// Money formats an amount the way the terminal displays it.
func Money(d decimal.Decimal) string {
	return d.StringFixed(displayPlaces)
}
