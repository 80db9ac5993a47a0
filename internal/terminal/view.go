package terminal

import (
	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/model"
)

type ProductCard struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Price     string            `json:"price"`
	Stock     int               `json:"stock"`
	Status    model.StockStatus `json:"status"`
	Clickable bool              `json:"clickable"`
}

type CartRow struct {
	Index     int    `json:"index"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	MaxStock  int    `json:"max_stock"`
	Price     string `json:"price"`
	LineTotal string `json:"line_total"`
}

// View is everything the terminal screen shows.
type View struct {
	Products      []ProductCard `json:"products"`
	Cart          []CartRow     `json:"cart"`
	Count         int           `json:"count"`
	Subtotal      string        `json:"subtotal"`
	Discount      string        `json:"discount"`
	Tax           string        `json:"tax"`
	Total         string        `json:"total"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	Filter        string        `json:"filter"`
	Currency      string        `json:"currency,omitempty"`
	Submitting    bool          `json:"submitting"`
	CatalogLoaded bool          `json:"catalog_loaded"`
}

// RenderProducts turns products into cards. Out-of-stock cards are not clickable.
func RenderProducts(products []model.Product) []ProductCard {
	cards := make([]ProductCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, ProductCard{
			ID:        p.ID,
			Name:      p.Name,
			Price:     cart.Money(p.Price),
			Stock:     p.StockQty,
			Status:    p.Status(),
			Clickable: p.Sellable(),
		})
	}
	return cards
}

func renderCart(lines []cart.Line) []CartRow {
	rows := make([]CartRow, 0, len(lines))
	for i, l := range lines {
		rows = append(rows, CartRow{
			Index:     i,
			ProductID: l.ProductID,
			Name:      l.Name,
			Qty:       l.Qty,
			MaxStock:  l.MaxStock,
			Price:     cart.Money(l.Price),
			LineTotal: cart.Money(l.Total()),
		})
	}
	return rows
}
