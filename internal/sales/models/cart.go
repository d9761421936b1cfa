package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartActive         CartStatus = "active"
	CartAbandoned      CartStatus = "abandoned"
	CartRecovered      CartStatus = "recovered"
	CartPendingPayment CartStatus = "pending_payment"
	CartPaid           CartStatus = "paid"
)

// StateOnClose is the conversation state recorded on a cart closed with this status.
func (s CartStatus) StateOnClose() ConversationState {
	if s == CartPendingPayment {
		return StateCheckoutPending
	}
	return StateClosed
}

// ConversationState is the explicit position of a customer in the sales conversation.
type ConversationState string

const (
	StateNoCart          ConversationState = "no_cart"
	StateBrowsing        ConversationState = "browsing"
	StateCartBuilding    ConversationState = "cart_building"
	StateCheckoutPending ConversationState = "checkout_pending"
	StateClosed          ConversationState = "closed"
)

type Cart struct {
	ID              string
	TenantID        string
	CustomerID      string
	Status          CartStatus
	State           ConversationState
	IsActive        bool
	Source          string
	ExternalID      string
	CouponCode      string
	LastInteraction time.Time
	LastNotified    *time.Time
	Metadata        map[string]string
	CreatedAt       time.Time
}

type CartLineItem struct {
	CartID    string
	ProductID int64
	Quantity  int
}

// CartLine is a line item joined with the product's current catalog data.
type CartLine struct {
	CartLineItem
	Name       string
	CategoryID int64
	Price      decimal.Decimal
	Stock      int
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal sums quantity x current price.
func LinesTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func ItemCount(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
