package payment

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ProviderStripe      = "stripe"
	ProviderMercadoPago = "mercadopago"
	ProviderDefault     = "default"
)

// LinkGenerator builds hosted checkout links. It does not call the provider.
type LinkGenerator struct {
	provider  string
	publicKey string
	currency  string
}

func NewLinkGenerator(provider, publicKey, currency string) *LinkGenerator {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = ProviderDefault
	}
	if currency == "" {
		currency = "USD"
	}
	if publicKey == "" {
		publicKey = "default"
	}
	return &LinkGenerator{provider: provider, publicKey: publicKey, currency: strings.ToUpper(currency)}
}

func (g *LinkGenerator) Link(cartID string, amount decimal.Decimal) string {
	reference := "chatsales_" + cartID
	switch g.provider {
	case ProviderStripe:
		q := url.Values{}
		q.Set("amount", amount.StringFixed(2))
		q.Set("currency", g.currency)
		return fmt.Sprintf("https://checkout.stripe.com/pay/%s?%s", reference, q.Encode())
	case ProviderMercadoPago:
		q := url.Values{}
		q.Set("pref_id", reference)
		return "https://www.mercadopago.com/checkout/pay?" + q.Encode()
	default:
		q := url.Values{}
		q.Set("amount", amount.StringFixed(2))
		q.Set("business_token", g.publicKey)
		return fmt.Sprintf("https://checkout.chatsales.app/pay/%s?%s", url.PathEscape(cartID), q.Encode())
	}
}
