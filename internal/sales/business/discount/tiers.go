package discount

import "github.com/shopspring/decimal"

// Tier is a recovery coupon granted once the cart total reaches MinValue.
type Tier struct {
	MinValue decimal.Decimal
	Code     string
	Percent  int
	Headline string
}

// Tiers are ordered from the highest threshold down.
var Tiers = []Tier{
	{MinValue: decimal.NewFromInt(200), Code: "VIP20", Percent: 20, Headline: "¡Eres cliente VIP!"},
	{MinValue: decimal.NewFromInt(100), Code: "PREMIUM15", Percent: 15, Headline: "¡Gran compra!"},
	{MinValue: decimal.NewFromInt(50), Code: "RECUPERA10", Percent: 10, Headline: "¡No te lo pierdas!"},
	{MinValue: decimal.Zero, Code: "AHORRA5", Percent: 5, Headline: "¡Último empujón!"},
}

type Offer struct {
	Tier
	Original decimal.Decimal
	Discount decimal.Decimal
	Final    decimal.Decimal
}

func TierFor(total decimal.Decimal) Tier {
	for _, t := range Tiers {
		if total.GreaterThanOrEqual(t.MinValue) {
			return t
		}
	}
	return Tiers[len(Tiers)-1]
}

func ByCode(code string) (Tier, bool) {
	for _, t := range Tiers {
		if t.Code == code {
			return t, true
		}
	}
	return Tier{}, false
}

// Apply computes the offer for a tier, rounded to cents.
func Apply(t Tier, total decimal.Decimal) Offer {
	cut := total.Mul(decimal.NewFromInt(int64(t.Percent))).Div(decimal.NewFromInt(100)).Round(2)
	return Offer{Tier: t, Original: total, Discount: cut, Final: total.Sub(cut)}
}
