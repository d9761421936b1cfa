package storage

import (
	"context"
	"database/sql"
	"fmt"

	"chatsales_api/internal/sales/models"
)

type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (r *PostgresCatalog) ListActiveProducts(ctx context.Context, tenantID string) ([]models.Product, error) {
	query := `
    SELECT id, tenant_id, category_id, name, COALESCE(description, ''), price, stock, is_active
    FROM sales.products
    WHERE tenant_id = $1 AND is_active AND stock > 0
    ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *PostgresCatalog) ListCategories(ctx context.Context, tenantID string) ([]models.Category, error) {
	query := `
    SELECT id, tenant_id, name, COALESCE(description, '')
    FROM sales.categories
    WHERE tenant_id = $1 AND is_active
    ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.CategoryID, &p.Name, &p.Description,
			&p.Price, &p.Stock, &p.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
