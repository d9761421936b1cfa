package storage

import (
	"bytes"
	"context"
	"testing"
	"time"

	"chatsales_api/internal/sales/models"
	"chatsales_api/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCatalog struct {
	products   []models.Product
	categories []models.Category
	calls      int
}

func (c *countingCatalog) ListActiveProducts(_ context.Context, _ string) ([]models.Product, error) {
	c.calls++
	return c.products, nil
}

func (c *countingCatalog) ListCategories(_ context.Context, _ string) ([]models.Category, error) {
	c.calls++
	return c.categories, nil
}

func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestCachedCatalog_FallsBackWhenRedisIsDown(t *testing.T) {
	inner := &countingCatalog{
		products:   []models.Product{{ID: 1, Name: "Running Shoes", Price: decimal.NewFromInt(25), Stock: 5, IsActive: true}},
		categories: []models.Category{{ID: 10, Name: "Calzado"}},
	}
	client := unreachableRedis()
	defer client.Close()

	var buf bytes.Buffer
	cached := NewCachedCatalog(inner, client, time.Minute, logger.NewSilentLogger(&buf, "[Catalog]"))

	products, err := cached.ListActiveProducts(context.Background(), "shop")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Running Shoes", products[0].Name)

	categories, err := cached.ListCategories(context.Background(), "shop")
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	assert.Equal(t, 2, inner.calls)
	assert.Contains(t, buf.String(), "catalog:shop:products")
}

func TestCachedCatalog_DefaultTTL(t *testing.T) {
	cached := NewCachedCatalog(&countingCatalog{}, unreachableRedis(), 0, nil)
	assert.Equal(t, DefaultCatalogTTL, cached.ttl)
}
