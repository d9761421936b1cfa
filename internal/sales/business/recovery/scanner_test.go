package recovery

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"chatsales_api/config/values"
	"chatsales_api/internal/sales/business/discount"
	"chatsales_api/internal/sales/models"
	"chatsales_api/internal/sales/storage/memory"
	"chatsales_api/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	tenant, customer, text string
}

type fakeNotifier struct {
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, tenantID, customerID, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{tenantID, customerID, text})
	return nil
}

func seedCart(t *testing.T, store *memory.CartStore, customer string, qty int) string {
	t.Helper()
	ctx := context.Background()
	s, err := store.Begin(ctx, "shop", customer)
	require.NoError(t, err)
	cart, err := s.GetOrCreateActiveCart(ctx)
	require.NoError(t, err)
	if qty > 0 {
		_, err = s.AddItem(ctx, cart, models.Product{ID: 1, TenantID: "shop", Name: "Running Shoes",
			Price: decimal.NewFromInt(50), Stock: 10, IsActive: true}, qty)
		require.NoError(t, err)
	}
	require.NoError(t, s.Commit())
	return cart.ID
}

func newStore(at time.Time) *memory.CartStore {
	catalog := memory.NewCatalog()
	catalog.PutProduct(models.Product{ID: 1, TenantID: "shop", Name: "Running Shoes",
		Price: decimal.NewFromInt(50), Stock: 10, IsActive: true})
	store := memory.NewCartStore(catalog)
	store.SetClock(func() time.Time { return at })
	return store
}

func TestScan_NotifiesIdleCartsOnce(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newStore(start)
	idle := seedCart(t, store, "c1", 2)
	seedCart(t, store, "c2", 0)

	notifier := &fakeNotifier{}
	scanner := NewScanner(store, notifier, values.DefaultRecoveryValues(), logger.NewSilentLogger(io.Discard, "[Recovery]"))

	report, err := scanner.Scan(context.Background(), start.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Candidates)

	now := start.Add(2 * time.Hour)
	report, err = scanner.Scan(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Report{Candidates: 2, Notified: 1, Skipped: 1}, report)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "c1", notifier.sent[0].customer)
	assert.Contains(t, notifier.sent[0].text, "2x Running Shoes")
	assert.Contains(t, notifier.sent[0].text, "PREMIUM15")

	cart, ok := store.Cart(idle)
	require.True(t, ok)
	assert.Equal(t, models.CartAbandoned, cart.Status)
	assert.Equal(t, "PREMIUM15", cart.CouponCode)
	require.NotNil(t, cart.LastNotified)
	assert.True(t, cart.LastNotified.Equal(now))

	report, err = scanner.Scan(context.Background(), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Notified)
}

func TestScan_NotifierFailureLeavesCartUnflagged(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := newStore(start)
	id := seedCart(t, store, "c1", 1)

	scanner := NewScanner(store, &fakeNotifier{err: errors.New("meta down")}, values.RecoveryValues{}, logger.NewSilentLogger(io.Discard, "[Recovery]"))
	report, err := scanner.Scan(context.Background(), start.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	cart, _ := store.Cart(id)
	assert.Nil(t, cart.LastNotified)
	assert.Equal(t, models.CartActive, cart.Status)
}

func TestMessageListsAtMostThreeItems(t *testing.T) {
	var lines []models.CartLine
	for i := 1; i <= 5; i++ {
		lines = append(lines, models.CartLine{
			CartLineItem: models.CartLineItem{ProductID: int64(i), Quantity: 1},
			Name:         "Item",
			Price:        decimal.NewFromInt(10),
		})
	}
	total := models.LinesTotal(lines)
	offer := discountFor(total)

	msg := Message(lines, offer)
	assert.Contains(t, msg, "y 2 más")
	assert.Contains(t, msg, "RECUPERA10")
	assert.Contains(t, msg, "$45.00")
}

func discountFor(total decimal.Decimal) discount.Offer {
	return discount.Apply(discount.TierFor(total), total)
}
