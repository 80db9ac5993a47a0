// Package cart holds the in-progress sale: ordered lines with a stock ceiling
// captured when each product was first added.
package cart

import (
	"errors"

	"go-pos-terminal/internal/model"

	"github.com/shopspring/decimal"
)

var ErrLineNotFound = errors.New("cart line not found")

// Line is one product in the cart. Price and MaxStock are snapshots from the
// moment the product was first added.
type Line struct {
	ProductID int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
	MaxStock  int             `json:"max_stock"`
}

func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart is not safe for concurrent use; the terminal controller serializes access.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// Add puts one unit of p in the cart. It reports whether the cart changed:
// out-of-stock products and lines already at their ceiling are silently ignored.
func (c *Cart) Add(p model.Product) bool {
	if p.StockQty <= 0 {
		return false
	}
	for i := range c.lines {
		if c.lines[i].ProductID != p.ID {
			continue
		}
		if c.lines[i].Qty >= c.lines[i].MaxStock {
			return false
		}
		c.lines[i].Qty++
		return true
	}
	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Qty:       1,
		MaxStock:  p.StockQty,
	})
	return true
}

// UpdateQty sets the quantity of the line at idx from raw user input.
// Unparsable input counts as 1; the result is clamped to [1, MaxStock].
func (c *Cart) UpdateQty(idx int, raw string) error {
	if idx < 0 || idx >= len(c.lines) {
		return ErrLineNotFound
	}
	qty, ok := ParseQty(raw)
	if !ok {
		qty = 1
	}
	line := &c.lines[idx]
	if qty > line.MaxStock {
		qty = line.MaxStock
	}
	if qty < 1 {
		qty = 1
	}
	line.Qty = qty
	return nil
}

func (c *Cart) Remove(idx int) error {
	if idx < 0 || idx >= len(c.lines) {
		return ErrLineNotFound
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return nil
}

func (c *Cart) Reset() {
	c.lines = nil
}

// Lines returns a copy in display order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Qty
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// SaleItems converts the lines into the wire shape of a sale.
func (c *Cart) SaleItems() []model.SaleItem {
	items := make([]model.SaleItem, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, model.SaleItem{
			ID:       l.ProductID,
			Name:     l.Name,
			Price:    l.Price,
			Qty:      l.Qty,
			MaxStock: l.MaxStock,
		})
	}
	return items
}
