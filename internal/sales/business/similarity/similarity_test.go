package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceRatio(t *testing.T) {
	s := SequenceRatio{}

	assert.Equal(t, 1.0, s.Ratio("carrito", "carrito"))
	assert.Equal(t, 0.0, s.Ratio("abc", "xyz"))
	assert.Equal(t, 1.0, s.Ratio("", ""))
	// "catalogo" vs "catalgo": 7 common runes out of 15.
	assert.InDelta(t, 14.0/15.0, s.Ratio("catalogo", "catalgo"), 1e-9)
	assert.Less(t, s.Ratio("carrito", "catalogo"), 0.8)
	// Same value Python's difflib gives: "pag" shared, 6/9.
	assert.InDelta(t, 6.0/9.0, s.Ratio("pagar", "pago"), 1e-9)
	// Runes, not bytes: "envío" and "envio" share four of five letters.
	assert.InDelta(t, 0.8, s.Ratio("envío", "envio"), 1e-9)
}

func TestSequenceRatio_Symmetric(t *testing.T) {
	s := SequenceRatio{}
	assert.InDelta(t, s.Ratio("pagar", "pago"), s.Ratio("pago", "pagar"), 1e-9)
}

func TestClosest(t *testing.T) {
	s := SequenceRatio{}

	best, score, ok := Closest(s, "carito", []string{"cesta", "carrito"}, 0.8)
	assert.True(t, ok)
	assert.Equal(t, "carrito", best)
	assert.GreaterOrEqual(t, score, 0.8)

	_, _, ok = Closest(s, "zapato", []string{"cesta", "carrito"}, 0.8)
	assert.False(t, ok)
}
