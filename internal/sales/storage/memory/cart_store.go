package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"chatsales_api/internal/sales/models"
	"chatsales_api/internal/sales/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var errSessionDone = errors.New("session already finished")

// CartStore applies writes immediately; Rollback only releases the customer lock.
type CartStore struct {
	catalog *Catalog
	now     func() time.Time

	locks sync.Map // customer key -> *sync.Mutex

	mu     sync.RWMutex
	carts  map[string]*models.Cart
	active map[string]string
	items  map[string][]models.CartLineItem
}

func NewCartStore(catalog *Catalog) *CartStore {
	return &CartStore{
		catalog: catalog,
		now:     time.Now,
		carts:   make(map[string]*models.Cart),
		active:  make(map[string]string),
		items:   make(map[string][]models.CartLineItem),
	}
}

// SetClock replaces the time source.
func (s *CartStore) SetClock(now func() time.Time) {
	s.now = now
}

func customerKey(tenantID, customerID string) string {
	return tenantID + "\x00" + customerID
}

func (s *CartStore) Begin(ctx context.Context, tenantID, customerID string) (storage.CartSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, &storage.CartStoreError{Op: "begin", Err: err}
	}
	lock := s.customerLock(tenantID, customerID)
	lock.Lock()
	return &session{store: s, lock: lock, tenantID: tenantID, customerID: customerID}, nil
}

func (s *CartStore) customerLock(tenantID, customerID string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(customerKey(tenantID, customerID), &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Cart returns a copy of any cart, active or closed.
func (s *CartStore) Cart(id string) (models.Cart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[id]
	if !ok {
		return models.Cart{}, false
	}
	return copyCart(c), true
}

// CountCarts reports how many carts (any status) exist for the customer.
func (s *CartStore) CountCarts(tenantID, customerID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.carts {
		if c.TenantID == tenantID && c.CustomerID == customerID {
			n++
		}
	}
	return n
}

func (s *CartStore) lines(cart *models.Cart) []models.CartLine {
	s.mu.RLock()
	items := append([]models.CartLineItem(nil), s.items[cart.ID]...)
	s.mu.RUnlock()

	lines := make([]models.CartLine, 0, len(items))
	for _, it := range items {
		line := models.CartLine{CartLineItem: it}
		if p, ok := s.catalog.Product(cart.TenantID, it.ProductID); ok {
			line.Name = p.Name
			line.CategoryID = p.CategoryID
			line.Price = p.Price
			line.Stock = p.Stock
		}
		lines = append(lines, line)
	}
	return lines
}

func (s *CartStore) ListAbandoned(_ context.Context, idleBefore, notifiedBefore time.Time) ([]storage.AbandonedCart, error) {
	s.mu.RLock()
	var candidates []models.Cart
	for _, c := range s.carts {
		if !c.IsActive || (c.Status != models.CartActive && c.Status != models.CartRecovered) {
			continue
		}
		if !c.LastInteraction.Before(idleBefore) {
			continue
		}
		if c.LastNotified != nil && !c.LastNotified.Before(notifiedBefore) {
			continue
		}
		candidates = append(candidates, copyCart(c))
	}
	s.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastInteraction.Before(candidates[j].LastInteraction)
	})

	out := make([]storage.AbandonedCart, 0, len(candidates))
	for i := range candidates {
		out = append(out, storage.AbandonedCart{Cart: candidates[i], Lines: s.lines(&candidates[i])})
	}
	return out, nil
}

// MarkNotified waits for any open session of the cart's customer to finish.
func (s *CartStore) MarkNotified(ctx context.Context, cart models.Cart, couponCode string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return &storage.CartStoreError{Op: "mark notified", Err: err}
	}
	lock := s.customerLock(cart.TenantID, cart.CustomerID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cart.ID]
	if !ok || !c.IsActive {
		return nil
	}
	t := at
	c.LastNotified = &t
	c.CouponCode = couponCode
	c.Status = models.CartAbandoned
	return nil
}

func copyCart(c *models.Cart) models.Cart {
	out := *c
	out.Metadata = make(map[string]string, len(c.Metadata))
	for k, v := range c.Metadata {
		out.Metadata[k] = v
	}
	if c.LastNotified != nil {
		t := *c.LastNotified
		out.LastNotified = &t
	}
	return out
}

type session struct {
	store      *CartStore
	lock       *sync.Mutex
	tenantID   string
	customerID string
	done       bool
}

func (ss *session) check(op string) error {
	if ss.done {
		return &storage.CartStoreError{Op: op, Err: errSessionDone}
	}
	return nil
}

func (ss *session) GetOrCreateActiveCart(_ context.Context) (*models.Cart, error) {
	if err := ss.check("get cart"); err != nil {
		return nil, err
	}
	s := ss.store
	key := customerKey(ss.tenantID, ss.customerID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.active[key]; ok {
		c := copyCart(s.carts[id])
		return &c, nil
	}

	now := s.now()
	cart := &models.Cart{
		ID:              uuid.NewString(),
		TenantID:        ss.tenantID,
		CustomerID:      ss.customerID,
		Status:          models.CartActive,
		State:           models.StateNoCart,
		IsActive:        true,
		Source:          "chat",
		LastInteraction: now,
		Metadata:        map[string]string{},
		CreatedAt:       now,
	}
	s.carts[cart.ID] = cart
	s.active[key] = cart.ID
	c := copyCart(cart)
	return &c, nil
}

func (ss *session) Lines(_ context.Context, cart *models.Cart) ([]models.CartLine, error) {
	if err := ss.check("lines"); err != nil {
		return nil, err
	}
	return ss.store.lines(cart), nil
}

func (ss *session) AddItem(_ context.Context, cart *models.Cart, product models.Product, quantity int) (models.CartLine, error) {
	if err := ss.check("add item"); err != nil {
		return models.CartLine{}, err
	}
	s := ss.store

	if quantity <= 0 {
		return models.CartLine{}, storage.ErrInvalidQuantity
	}

	stock := product.Stock
	if current, ok := s.catalog.Product(cart.TenantID, product.ID); ok {
		product = current
		stock = current.Stock
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.items[cart.ID]
	idx, inCart := -1, 0
	for i := range items {
		if items[i].ProductID == product.ID {
			idx, inCart = i, items[i].Quantity
			break
		}
	}

	if inCart+quantity > stock {
		return models.CartLine{}, &storage.InsufficientStockError{
			ProductID: product.ID,
			Requested: quantity,
			Available: storage.Remaining(stock, inCart),
		}
	}

	if idx >= 0 {
		items[idx].Quantity += quantity
	} else {
		items = append(items, models.CartLineItem{CartID: cart.ID, ProductID: product.ID, Quantity: quantity})
		idx = len(items) - 1
	}
	s.items[cart.ID] = items

	return models.CartLine{
		CartLineItem: items[idx],
		Name:         product.Name,
		CategoryID:   product.CategoryID,
		Price:        product.Price,
		Stock:        stock,
	}, nil
}

func (ss *session) Clear(_ context.Context, cart *models.Cart) error {
	if err := ss.check("clear"); err != nil {
		return err
	}
	ss.store.mu.Lock()
	defer ss.store.mu.Unlock()
	delete(ss.store.items, cart.ID)
	return nil
}

func (ss *session) Close(_ context.Context, cart *models.Cart, status models.CartStatus) error {
	if err := ss.check("close"); err != nil {
		return err
	}
	s := ss.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.carts[cart.ID]
	if !ok {
		return &storage.CartStoreError{Op: "close", Err: errors.New("cart not found")}
	}
	stored.IsActive = false
	stored.Status = status
	stored.State = status.StateOnClose()
	stored.LastInteraction = s.now()
	delete(s.active, customerKey(stored.TenantID, stored.CustomerID))

	cart.IsActive = false
	cart.Status = status
	cart.State = status.StateOnClose()
	return nil
}

func (ss *session) ComputeTotal(_ context.Context, cart *models.Cart) (decimal.Decimal, error) {
	if err := ss.check("total"); err != nil {
		return decimal.Zero, err
	}
	return models.LinesTotal(ss.store.lines(cart)), nil
}

func (ss *session) Touch(_ context.Context, cart *models.Cart) error {
	if err := ss.check("touch"); err != nil {
		return err
	}
	s := ss.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.carts[cart.ID]
	if !ok {
		return &storage.CartStoreError{Op: "touch", Err: errors.New("cart not found")}
	}
	cart.LastInteraction = s.now()
	stored.Status = cart.Status
	stored.State = cart.State
	stored.CouponCode = cart.CouponCode
	stored.LastInteraction = cart.LastInteraction
	stored.Metadata = make(map[string]string, len(cart.Metadata))
	for k, v := range cart.Metadata {
		stored.Metadata[k] = v
	}
	return nil
}

func (ss *session) Commit() error {
	return ss.finish()
}

func (ss *session) Rollback() error {
	return ss.finish()
}

func (ss *session) finish() error {
	if ss.done {
		return nil
	}
	ss.done = true
	ss.lock.Unlock()
	return nil
}

