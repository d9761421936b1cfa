package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chatsales_api/internal/sales/models"
	"chatsales_api/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const DefaultCatalogTTL = 5 * time.Minute

// CachedCatalog is a read-through Redis decorator. Redis problems never fail a read,
// the wrapped catalog answers instead.
type CachedCatalog struct {
	inner  Catalog
	client redis.Cmdable
	ttl    time.Duration
	log    logger.Logger
}

func NewCachedCatalog(inner Catalog, client redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CachedCatalog{inner: inner, client: client, ttl: ttl, log: log}
}

func productsKey(tenantID string) string   { return fmt.Sprintf("catalog:%s:products", tenantID) }
func categoriesKey(tenantID string) string { return fmt.Sprintf("catalog:%s:categories", tenantID) }

func (c *CachedCatalog) ListActiveProducts(ctx context.Context, tenantID string) ([]models.Product, error) {
	var products []models.Product
	if c.get(ctx, productsKey(tenantID), &products) {
		return products, nil
	}
	products, err := c.inner.ListActiveProducts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, productsKey(tenantID), products)
	return products, nil
}

func (c *CachedCatalog) ListCategories(ctx context.Context, tenantID string) ([]models.Category, error) {
	var categories []models.Category
	if c.get(ctx, categoriesKey(tenantID), &categories) {
		return categories, nil
	}
	categories, err := c.inner.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, categoriesKey(tenantID), categories)
	return categories, nil
}

// Invalidate drops both cached views of a tenant's catalog.
func (c *CachedCatalog) Invalidate(ctx context.Context, tenantID string) error {
	return c.client.Del(ctx, productsKey(tenantID), categoriesKey(tenantID)).Err()
}

func (c *CachedCatalog) get(ctx context.Context, key string, dst interface{}) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logf("cache read %s failed: %v", key, err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logf("cache entry %s is corrupt: %v", key, err)
		return false
	}
	return true
}

func (c *CachedCatalog) set(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logf("cache write %s failed: %v", key, err)
	}
}

func (c *CachedCatalog) logf(format string, v ...interface{}) {
	if c.log != nil {
		c.log.Log(format, v...)
	}
}
