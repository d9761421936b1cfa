package models

import "github.com/shopspring/decimal"

type Category struct {
	ID          int64  `json:"id"`
	TenantID    string `json:"tenant_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Product struct {
	ID          int64           `json:"id"`
	TenantID    string          `json:"tenant_id"`
	CategoryID  int64           `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
}

// Available reports whether the product may be shown or matched.
func (p Product) Available() bool {
	return p.IsActive && p.Stock > 0
}

// AvailableOnly filters products down to the ones the engine may offer.
func AvailableOnly(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Available() {
			out = append(out, p)
		}
	}
	return out
}
