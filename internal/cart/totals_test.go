package cart

import (
	"testing"

	"go-pos-terminal/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	c := New()
	c.Add(model.Product{ID: 1, Name: "Rice", Price: decimal.NewFromInt(50), StockQty: 10})
	c.UpdateQty(0, "2")

	totals := ComputeTotals(c, ParseAmount("10"), ParseAmount("5"), true)

	assert.Equal(t, "100.00", Money(totals.Subtotal))
	assert.Equal(t, "95.00", Money(totals.Total))
	assert.Equal(t, 2, totals.Count)
}

func TestComputeTotalsRounding(t *testing.T) {
	c := New()
	// 3 x 0.335 = 1.005
	c.Add(model.Product{ID: 1, Name: "Gum", Price: decimal.RequireFromString("0.335"), StockQty: 10})
	c.UpdateQty(0, "3")

	rounded := ComputeTotals(c, decimal.Zero, decimal.Zero, true)
	exact := ComputeTotals(c, decimal.Zero, decimal.Zero, false)

	assert.Equal(t, "1.01", rounded.Total.String())
	assert.Equal(t, "1.005", exact.Total.String())
	assert.Equal(t, "1.01", Money(exact.Subtotal))
}

func TestComputeTotalsUnvalidatedAdjustments(t *testing.T) {
	c := New()
	c.Add(model.Product{ID: 1, Name: "Tea", Price: decimal.NewFromInt(20), StockQty: 10})

	totals := ComputeTotals(c, ParseAmount("50"), ParseAmount("-3"), true)

	assert.Equal(t, "-33.00", Money(totals.Total))
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	totals := ComputeTotals(New(), ParseAmount("4"), ParseAmount("1"), true)

	assert.Equal(t, "0.00", Money(totals.Subtotal))
	assert.Equal(t, "-3.00", Money(totals.Total))
	assert.Zero(t, totals.Count)
}

func TestParseAmount(t *testing.T) {
	tests := map[string]string{
		"":        "0",
		"abc":     "0",
		"10":      "10",
		"  7.25 ": "7.25",
		"12abc":   "12",
		"-3":      "-3",
		"+4":      "4",
		".5":      "0.5",
		"-.5":     "-0.5",
		"1e2":     "100",
		"1.":      "1",
		"3,5":     "3",
	}
	for raw, want := range tests {
		got := ParseAmount(raw)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "ParseAmount(%q) = %s, want %s", raw, got, want)
	}
}

func TestParseQty(t *testing.T) {
	n, ok := ParseQty("12 units")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = ParseQty("units")
	assert.False(t, ok)

	n, ok = ParseQty("+5")
	assert.True(t, ok)
	assert.Equal(t, 5, n)
}
