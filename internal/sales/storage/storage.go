package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatsales_api/internal/sales/models"

	"github.com/shopspring/decimal"
)

// ErrCartStore marks persistence failures. They cannot be recovered by the engine.
var ErrCartStore = errors.New("cart store failure")

var ErrInvalidQuantity = errors.New("quantity must be positive")

type CartStoreError struct {
	Op  string
	Err error
}

func (e *CartStoreError) Error() string {
	return fmt.Sprintf("cart store: %s: %v", e.Op, e.Err)
}

func (e *CartStoreError) Unwrap() error { return e.Err }

func (e *CartStoreError) Is(target error) bool { return target == ErrCartStore }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CartStoreError{Op: op, Err: err}
}

// InsufficientStockError is returned by AddItem when the request exceeds what is left.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Remaining is what a customer may still add given the stock and what is already in the cart.
func Remaining(stock, inCart int) int {
	if left := stock - inCart; left > 0 {
		return left
	}
	return 0
}

// Catalog is the read-only view of a tenant's sellable products.
type Catalog interface {
	// ListActiveProducts returns only products with is_active and stock > 0.
	ListActiveProducts(ctx context.Context, tenantID string) ([]models.Product, error)
	ListCategories(ctx context.Context, tenantID string) ([]models.Category, error)
}

// CartStore opens units of work serialized per (tenant, customer).
type CartStore interface {
	Begin(ctx context.Context, tenantID, customerID string) (CartSession, error)
}

// CartSession holds the customer's cart lock until Commit or Rollback.
type CartSession interface {
	GetOrCreateActiveCart(ctx context.Context) (*models.Cart, error)
	Lines(ctx context.Context, cart *models.Cart) ([]models.CartLine, error)
	AddItem(ctx context.Context, cart *models.Cart, product models.Product, quantity int) (models.CartLine, error)
	Clear(ctx context.Context, cart *models.Cart) error
	Close(ctx context.Context, cart *models.Cart, status models.CartStatus) error
	ComputeTotal(ctx context.Context, cart *models.Cart) (decimal.Decimal, error)
	// Touch persists status, state, metadata, coupon and last interaction.
	Touch(ctx context.Context, cart *models.Cart) error
	Commit() error
	Rollback() error
}

// AbandonedCart is a recovery candidate together with its current lines.
type AbandonedCart struct {
	Cart  models.Cart
	Lines []models.CartLine
}

// RecoveryStore is used by the abandoned-cart scanner; it never touches line items.
type RecoveryStore interface {
	ListAbandoned(ctx context.Context, idleBefore, notifiedBefore time.Time) ([]AbandonedCart, error)
	// MarkNotified takes the same per-customer lock as CartStore.Begin.
	MarkNotified(ctx context.Context, cart models.Cart, couponCode string, at time.Time) error
}
