// Package memory keeps catalog and cart state in process. It backs the "memory" storage
// driver and the engine tests.
package memory

import (
	"context"
	"sync"

	"chatsales_api/internal/sales/models"
)

type Catalog struct {
	mu         sync.RWMutex
	categories map[string][]models.Category
	products   map[string][]models.Product
}

func NewCatalog() *Catalog {
	return &Catalog{
		categories: make(map[string][]models.Category),
		products:   make(map[string][]models.Product),
	}
}

func (c *Catalog) AddCategory(cat models.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[cat.TenantID] = append(c.categories[cat.TenantID], cat)
}

// PutProduct inserts p or replaces the product with the same tenant and id.
func (c *Catalog) PutProduct(p models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.products[p.TenantID]
	for i := range list {
		if list[i].ID == p.ID {
			list[i] = p
			return
		}
	}
	c.products[p.TenantID] = append(list, p)
}

// Product returns the product regardless of availability.
func (c *Catalog) Product(tenantID string, id int64) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products[tenantID] {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (c *Catalog) ListActiveProducts(_ context.Context, tenantID string) ([]models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.AvailableOnly(c.products[tenantID]), nil
}

func (c *Catalog) ListCategories(_ context.Context, tenantID string) ([]models.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Category, len(c.categories[tenantID]))
	copy(out, c.categories[tenantID])
	return out, nil
}
