package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLinkGenerator(t *testing.T) {
	amount := decimal.RequireFromString("50")

	cases := []struct {
		provider string
		want     string
	}{
		{"stripe", "https://checkout.stripe.com/pay/chatsales_cart-1?amount=50.00&currency=USD"},
		{"MercadoPago", "https://www.mercadopago.com/checkout/pay?pref_id=chatsales_cart-1"},
		{"", "https://checkout.chatsales.app/pay/cart-1?amount=50.00&business_token=pk_test"},
		{"paypal", "https://checkout.chatsales.app/pay/cart-1?amount=50.00&business_token=pk_test"},
	}

	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			g := NewLinkGenerator(tc.provider, "pk_test", "usd")
			assert.Equal(t, tc.want, g.Link("cart-1", amount))
		})
	}
}
