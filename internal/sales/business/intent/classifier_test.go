package intent

import (
	"testing"

	"chatsales_api/config/values"
	"chatsales_api/internal/sales/business/similarity"

	"github.com/stretchr/testify/assert"
)

func newDefaultClassifier() *Classifier {
	v := values.DefaultEngineValues()
	return NewClassifier(v.Intents, ConfigFromValues(v), similarity.SequenceRatio{})
}

func TestClassify_DefaultTable(t *testing.T) {
	c := newDefaultClassifier()

	cases := map[string]Intent{
		"hola":                        Greeting,
		"Buenas tardes":               Greeting,
		"catálogo":                    Catalog,
		"¿qué productos tienes?":      Catalog,
		"ver carrito":                 ViewCart,
		"vaciar carrito":              ClearCart,
		"quiero running shoes":        AddToCart,
		"pagar":                       Checkout,
		"quiero pagar":                Checkout,
		"quiero finalizar":            Checkout,
		"no quiero running shoes":     Negative,
		"sí":                          Positive,
		"no":                          Negative,
		"cuanto tarda el envio a lima": General,
	}
	for text, want := range cases {
		assert.Equal(t, want, c.Classify(text).Intent, text)
	}
}

func TestClassify_FuzzyTypo(t *testing.T) {
	c := newDefaultClassifier()

	got := c.Classify("carito")
	assert.Equal(t, ViewCart, got.Intent)
	assert.InDelta(t, 0.8, got.Score, 1e-9)
}

func TestClassify_ShortTokensNeverFuzzy(t *testing.T) {
	c := newDefaultClassifier()
	// "pag" is 3 runes: too short for fuzzy matching.
	assert.Equal(t, General, c.Classify("pag").Intent)
}

func TestClassify_Deterministic(t *testing.T) {
	c := newDefaultClassifier()
	inputs := []string{"hola quiero pagar", "ok dale", "no gracias", "x", ""}
	for _, in := range inputs {
		first := c.Classify(in)
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, c.Classify(in), in)
		}
	}
}

func TestClassify_TieBreakFollowsTableOrder(t *testing.T) {
	table := []values.IntentKeywords{
		{Name: "first", Keywords: []string{"alpha"}},
		{Name: "second", Keywords: []string{"beta"}},
	}
	c := NewClassifier(table, ConfigFromValues(values.DefaultEngineValues()), nil)

	assert.Equal(t, Intent("first"), c.Classify("beta alpha").Intent)

	reversed := NewClassifier([]values.IntentKeywords{table[1], table[0]}, ConfigFromValues(values.DefaultEngineValues()), nil)
	assert.Equal(t, Intent("second"), reversed.Classify("beta alpha").Intent)
}

func TestClassify_BelowFloorIsGeneral(t *testing.T) {
	v := values.DefaultEngineValues()
	cfg := ConfigFromValues(v)
	cfg.ConfidenceFloor = 2.0
	c := NewClassifier(v.Intents, cfg, nil)

	got := c.Classify("hola")
	assert.Equal(t, General, got.Intent)
	assert.InDelta(t, 1.2, got.Score, 1e-9)
}

func TestHasKeyword(t *testing.T) {
	c := newDefaultClassifier()
	assert.True(t, c.HasKeyword("Quiero las zapatillas", AddToCart))
	assert.False(t, c.HasKeyword("las zapatillas", AddToCart))
}
