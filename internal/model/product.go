package model

import "github.com/shopspring/decimal"

// DefaultMinStockAlert is the low-stock threshold used when a product has none set.
const DefaultMinStockAlert = 5

// Product is the terminal's read-only copy of a backend catalog record.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQty      int             `json:"stock_qty"`
	MinStockAlert int             `json:"min_stock_alert,omitempty"`
	Barcode       string          `json:"barcode"`
}

type StockStatus string

const (
	StockNormal     StockStatus = "normal"
	StockLow        StockStatus = "low-stock"
	StockOutOfStock StockStatus = "out-of-stock"
)

// LowStockThreshold falls back to DefaultMinStockAlert only when the alert
// level is unset. A negative level is kept, so the product never shows as low.
func (p Product) LowStockThreshold() int {
	if p.MinStockAlert != 0 {
		return p.MinStockAlert
	}
	return DefaultMinStockAlert
}

func (p Product) Status() StockStatus {
	switch {
	case p.StockQty <= 0:
		return StockOutOfStock
	case p.StockQty <= p.LowStockThreshold():
		return StockLow
	default:
		return StockNormal
	}
}

// Sellable reports whether the product can be clicked into the cart.
func (p Product) Sellable() bool {
	return p.StockQty > 0
}
