// Package catalog keeps the terminal's cached copy of the backend product list.
package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go-pos-terminal/internal/model"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrStaleResponse means a newer load was issued before this one finished.
	ErrStaleResponse = errors.New("stale catalog response")
)

// Source is the server-side search the catalog is filled from.
type Source interface {
	SearchProducts(ctx context.Context, query string) ([]model.Product, error)
}

// Catalog holds the product list. Loads are sequenced: starting a load cancels
// the one in flight, and only the most recently issued load may replace the list.
type Catalog struct {
	source Source

	mu       sync.RWMutex
	products []model.Product
	loaded   bool
	seq      uint64
	cancel   context.CancelFunc
}

func New(source Source) *Catalog {
	return &Catalog{source: source}
}

// Load fetches the full catalog. On error the previous list stays in place.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	token := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	products, err := c.source.SearchProducts(ctx, "")

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq {
		return ErrStaleResponse
	}
	c.cancel = nil
	if err != nil {
		return err
	}
	c.products = products
	c.loaded = true
	return nil
}

// Lookup asks the server for code and returns the first match.
func (c *Catalog) Lookup(ctx context.Context, code string) (model.Product, error) {
	results, err := c.source.SearchProducts(ctx, code)
	if err != nil {
		return model.Product{}, err
	}
	if len(results) == 0 {
		return model.Product{}, ErrProductNotFound
	}
	return results[0], nil
}

// Find returns the cached snapshot of product id.
func (c *Catalog) Find(id int64) (model.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, ErrProductNotFound
}

// Filter matches q against name and barcode as a case-sensitive substring,
// locally, without asking the server. A blank q returns everything.
func (c *Catalog) Filter(q string) []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q = strings.TrimSpace(q)
	out := make([]model.Product, 0, len(c.products))
	for _, p := range c.products {
		if q == "" || strings.Contains(p.Name, q) || strings.Contains(p.Barcode, q) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) Products() []model.Product {
	return c.Filter("")
}

func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
