package model

import "github.com/shopspring/decimal"

// SaleItem is one cart line as sent to the backend.
type SaleItem struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Qty      int             `json:"qty" validate:"gte=1"`
	MaxStock int             `json:"max_stock"`
}

// SalePayload is built at pay time and discarded once submitted.
type SalePayload struct {
	Items         []SaleItem      `json:"items" validate:"required,min=1,dive"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
}

// SaleReceipt is what the backend hands back for an accepted sale.
type SaleReceipt struct {
	SaleID  string `json:"sale_id"`
	Message string `json:"message,omitempty"`
}
