package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"chatsales_api/internal/sales/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const cartColumns = `id, tenant_id, customer_id, status, state, is_active, source,
    external_id, coupon_code, metadata, last_interaction, last_notified, created_at`

// PostgresCartStore serializes a customer's messages with a transaction-scoped advisory
// lock on (tenant, customer); the partial unique index on active carts backs it up.
type PostgresCartStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresCartStore(db *sql.DB) *PostgresCartStore {
	return &PostgresCartStore{db: db, now: time.Now}
}

func (r *PostgresCartStore) Begin(ctx context.Context, tenantID, customerID string) (CartSession, error) {
	tx, err := r.lockCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	return &pgSession{tx: tx, tenantID: tenantID, customerID: customerID, now: r.now}, nil
}

// lockCustomer opens a transaction holding the customer's advisory lock until it ends.
func (r *PostgresCartStore) lockCustomer(ctx context.Context, tenantID, customerID string) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`, tenantID, customerID); err != nil {
		tx.Rollback()
		return nil, storeErr("lock customer", err)
	}
	return tx, nil
}

func (r *PostgresCartStore) ListAbandoned(ctx context.Context, idleBefore, notifiedBefore time.Time) ([]AbandonedCart, error) {
	query := `SELECT ` + cartColumns + `
    FROM sales.carts
    WHERE is_active AND status IN ('active', 'recovered')
      AND last_interaction < $1
      AND (last_notified IS NULL OR last_notified < $2)
    ORDER BY last_interaction`

	rows, err := r.db.QueryContext(ctx, query, idleBefore, notifiedBefore)
	if err != nil {
		return nil, storeErr("list abandoned", err)
	}
	defer rows.Close()

	var out []AbandonedCart
	var ids []string
	index := make(map[string]int)
	for rows.Next() {
		cart, err := scanCart(rows)
		if err != nil {
			return nil, storeErr("scan abandoned", err)
		}
		index[cart.ID] = len(out)
		ids = append(ids, cart.ID)
		out = append(out, AbandonedCart{Cart: *cart})
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list abandoned", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	lineQuery := `
    SELECT ci.cart_id, ci.product_id, ci.quantity, p.name, p.category_id, p.price, p.stock
    FROM sales.cart_items ci
    JOIN sales.products p ON p.id = ci.product_id
    WHERE ci.cart_id = ANY($1::uuid[])
    ORDER BY ci.id`

	lineRows, err := r.db.QueryContext(ctx, lineQuery, pq.Array(ids))
	if err != nil {
		return nil, storeErr("abandoned lines", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var l models.CartLine
		if err := lineRows.Scan(&l.CartID, &l.ProductID, &l.Quantity, &l.Name, &l.CategoryID, &l.Price, &l.Stock); err != nil {
			return nil, storeErr("scan abandoned line", err)
		}
		if i, ok := index[l.CartID]; ok {
			out[i].Lines = append(out[i].Lines, l)
		}
	}
	return out, storeErr("abandoned lines", lineRows.Err())
}

// MarkNotified waits for the customer's lock, so a conversation turn in flight
// commits first and cannot overwrite the coupon with its older snapshot.
func (r *PostgresCartStore) MarkNotified(ctx context.Context, cart models.Cart, couponCode string, at time.Time) error {
	tx, err := r.lockCustomer(ctx, cart.TenantID, cart.CustomerID)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
    UPDATE sales.carts
    SET last_notified = $2, coupon_code = $3, status = 'abandoned'
    WHERE id = $1 AND is_active`, cart.ID, at, couponCode); err != nil {
		return storeErr("mark notified", err)
	}
	return storeErr("commit", tx.Commit())
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCart(row rowScanner) (*models.Cart, error) {
	var (
		c            models.Cart
		status       string
		state        string
		externalID   sql.NullString
		couponCode   sql.NullString
		metadata     []byte
		lastNotified sql.NullTime
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.CustomerID, &status, &state, &c.IsActive, &c.Source,
		&externalID, &couponCode, &metadata, &c.LastInteraction, &lastNotified, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = models.CartStatus(status)
	c.State = models.ConversationState(state)
	c.ExternalID = externalID.String
	c.CouponCode = couponCode.String
	if lastNotified.Valid {
		t := lastNotified.Time
		c.LastNotified = &t
	}
	c.Metadata = map[string]string{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type pgSession struct {
	tx         *sql.Tx
	tenantID   string
	customerID string
	now        func() time.Time
}

func (s *pgSession) GetOrCreateActiveCart(ctx context.Context) (*models.Cart, error) {
	row := s.tx.QueryRowContext(ctx, `SELECT `+cartColumns+`
    FROM sales.carts
    WHERE tenant_id = $1 AND customer_id = $2 AND is_active`, s.tenantID, s.customerID)

	cart, err := scanCart(row)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, storeErr("get active cart", err)
	}

	now := s.now()
	cart = &models.Cart{
		ID:              uuid.NewString(),
		TenantID:        s.tenantID,
		CustomerID:      s.customerID,
		Status:          models.CartActive,
		State:           models.StateNoCart,
		IsActive:        true,
		Source:          "chat",
		LastInteraction: now,
		Metadata:        map[string]string{},
		CreatedAt:       now,
	}
	_, err = s.tx.ExecContext(ctx, `
    INSERT INTO sales.carts (id, tenant_id, customer_id, status, state, is_active, source, metadata, last_interaction, created_at)
    VALUES ($1, $2, $3, $4, $5, TRUE, $6, '{}'::jsonb, $7, $7)`,
		cart.ID, cart.TenantID, cart.CustomerID, string(cart.Status), string(cart.State), cart.Source, now)
	if err != nil {
		return nil, storeErr("create cart", err)
	}
	return cart, nil
}

func (s *pgSession) Lines(ctx context.Context, cart *models.Cart) ([]models.CartLine, error) {
	rows, err := s.tx.QueryContext(ctx, `
    SELECT ci.product_id, ci.quantity, p.name, p.category_id, p.price, p.stock
    FROM sales.cart_items ci
    JOIN sales.products p ON p.id = ci.product_id
    WHERE ci.cart_id = $1
    ORDER BY ci.id`, cart.ID)
	if err != nil {
		return nil, storeErr("lines", err)
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		l := models.CartLine{CartLineItem: models.CartLineItem{CartID: cart.ID}}
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.Name, &l.CategoryID, &l.Price, &l.Stock); err != nil {
			return nil, storeErr("scan line", err)
		}
		lines = append(lines, l)
	}
	return lines, storeErr("lines", rows.Err())
}

func (s *pgSession) AddItem(ctx context.Context, cart *models.Cart, product models.Product, quantity int) (models.CartLine, error) {
	if quantity <= 0 {
		return models.CartLine{}, ErrInvalidQuantity
	}

	var stock int
	err := s.tx.QueryRowContext(ctx,
		`SELECT stock FROM sales.products WHERE id = $1 AND tenant_id = $2 FOR SHARE`,
		product.ID, cart.TenantID).Scan(&stock)
	if err != nil {
		return models.CartLine{}, storeErr("read stock", err)
	}

	var inCart int
	err = s.tx.QueryRowContext(ctx,
		`SELECT quantity FROM sales.cart_items WHERE cart_id = $1 AND product_id = $2`,
		cart.ID, product.ID).Scan(&inCart)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.CartLine{}, storeErr("read line", err)
	}

	if inCart+quantity > stock {
		return models.CartLine{}, &InsufficientStockError{
			ProductID: product.ID,
			Requested: quantity,
			Available: Remaining(stock, inCart),
		}
	}

	var total int
	err = s.tx.QueryRowContext(ctx, `
    INSERT INTO sales.cart_items (cart_id, product_id, quantity)
    VALUES ($1, $2, $3)
    ON CONFLICT (cart_id, product_id)
    DO UPDATE SET quantity = sales.cart_items.quantity + EXCLUDED.quantity
    RETURNING quantity`, cart.ID, product.ID, quantity).Scan(&total)
	if err != nil {
		return models.CartLine{}, storeErr("add item", err)
	}

	return models.CartLine{
		CartLineItem: models.CartLineItem{CartID: cart.ID, ProductID: product.ID, Quantity: total},
		Name:         product.Name,
		CategoryID:   product.CategoryID,
		Price:        product.Price,
		Stock:        stock,
	}, nil
}

func (s *pgSession) Clear(ctx context.Context, cart *models.Cart) error {
	_, err := s.tx.ExecContext(ctx, `DELETE FROM sales.cart_items WHERE cart_id = $1`, cart.ID)
	return storeErr("clear", err)
}

func (s *pgSession) Close(ctx context.Context, cart *models.Cart, status models.CartStatus) error {
	now := s.now()
	_, err := s.tx.ExecContext(ctx, `
    UPDATE sales.carts
    SET is_active = FALSE, status = $2, state = $3, last_interaction = $4
    WHERE id = $1`, cart.ID, string(status), string(status.StateOnClose()), now)
	if err != nil {
		return storeErr("close", err)
	}
	cart.IsActive = false
	cart.Status = status
	cart.State = status.StateOnClose()
	cart.LastInteraction = now
	return nil
}

func (s *pgSession) ComputeTotal(ctx context.Context, cart *models.Cart) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.tx.QueryRowContext(ctx, `
    SELECT COALESCE(SUM(ci.quantity * p.price), 0)
    FROM sales.cart_items ci
    JOIN sales.products p ON p.id = ci.product_id
    WHERE ci.cart_id = $1`, cart.ID).Scan(&total)
	if err != nil {
		return decimal.Zero, storeErr("total", err)
	}
	return total, nil
}

func (s *pgSession) Touch(ctx context.Context, cart *models.Cart) error {
	metadata, err := json.Marshal(cart.Metadata)
	if err != nil {
		return storeErr("encode metadata", err)
	}
	now := s.now()
	_, err = s.tx.ExecContext(ctx, `
    UPDATE sales.carts
    SET status = $2, state = $3, coupon_code = $4, metadata = $5, last_interaction = $6
    WHERE id = $1`, cart.ID, string(cart.Status), string(cart.State), nullString(cart.CouponCode), metadata, now)
	if err != nil {
		return storeErr("touch", err)
	}
	cart.LastInteraction = now
	return nil
}

func (s *pgSession) Commit() error {
	err := s.tx.Commit()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return storeErr("commit", err)
}

func (s *pgSession) Rollback() error {
	err := s.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return storeErr("rollback", err)
}
