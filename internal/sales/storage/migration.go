package storage

import (
	"database/sql"
	"fmt"
)

type SalesSchema struct{}

func (m *SalesSchema) UpMigration(db *sql.DB) error {
	_, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS sales;`)
	return err
}

type SalesCategories struct{}

func (m *SalesCategories) UpMigration(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS sales.categories (
        id SERIAL PRIMARY KEY,
        tenant_id VARCHAR(64) NOT NULL,
        name VARCHAR(255) NOT NULL,
        description TEXT,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        created_at TIMESTAMPTZ DEFAULT NOW()
    );
    CREATE INDEX IF NOT EXISTS categories_tenant_idx ON sales.categories (tenant_id);`

	_, err := db.Exec(query)
	return err
}

type SalesProducts struct{}

func (m *SalesProducts) UpMigration(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS sales.products (
        id SERIAL PRIMARY KEY,
        tenant_id VARCHAR(64) NOT NULL,
        category_id INT NOT NULL REFERENCES sales.categories(id) ON DELETE CASCADE,
        name VARCHAR(255) NOT NULL,
        description TEXT,
        price NUMERIC(12, 2) NOT NULL,
        stock INT NOT NULL DEFAULT 0,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        external_id VARCHAR(128),
        provider VARCHAR(32),
        updated_at TIMESTAMPTZ DEFAULT NOW()
    );
    CREATE INDEX IF NOT EXISTS products_tenant_active_idx ON sales.products (tenant_id) WHERE is_active AND stock > 0;`

	_, err := db.Exec(query)
	return err
}

type SalesCarts struct{}

func (m *SalesCarts) UpMigration(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS sales.carts (
        id UUID PRIMARY KEY,
        tenant_id VARCHAR(64) NOT NULL,
        customer_id VARCHAR(128) NOT NULL,
        status VARCHAR(32) NOT NULL DEFAULT 'active',
        state VARCHAR(32) NOT NULL DEFAULT 'no_cart',
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        source VARCHAR(64) NOT NULL DEFAULT 'chat',
        external_id VARCHAR(128),
        coupon_code VARCHAR(64),
        metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
        last_interaction TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        last_notified TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );
    CREATE UNIQUE INDEX IF NOT EXISTS carts_one_active_idx
        ON sales.carts (tenant_id, customer_id) WHERE is_active;
    CREATE INDEX IF NOT EXISTS carts_recovery_idx
        ON sales.carts (last_interaction) WHERE is_active;`

	_, err := db.Exec(query)
	return err
}

type SalesCartItems struct{}

func (m *SalesCartItems) UpMigration(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS sales.cart_items (
        id BIGSERIAL PRIMARY KEY,
        cart_id UUID NOT NULL REFERENCES sales.carts(id) ON DELETE CASCADE,
        product_id INT NOT NULL REFERENCES sales.products(id),
        quantity INT NOT NULL CHECK (quantity > 0),
        UNIQUE (cart_id, product_id)
    );`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("cart_items: %w", err)
	}
	return nil
}
