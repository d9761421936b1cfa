package rules

import (
	"testing"

	"chatsales_api/internal/sales/models"

	"github.com/stretchr/testify/assert"
)

func TestMatch_ReturnsResponseVerbatim(t *testing.T) {
	ruleSet := []models.Rule{{Pattern: "horario", Response: "Abrimos 9-6"}}

	got, ok := Match("¿cuál es el horario?", ruleSet)

	assert.True(t, ok)
	assert.Equal(t, "Abrimos 9-6", got)
}

func TestMatch_FirstRuleWins(t *testing.T) {
	ruleSet := []models.Rule{
		{Pattern: "envio|delivery", Response: "Enviamos a todo el país"},
		{Pattern: "envio", Response: "never"},
	}

	got, ok := Match("Hacen ENVIO?", ruleSet)

	assert.True(t, ok)
	assert.Equal(t, "Enviamos a todo el país", got)
}

func TestMatch_InvalidPatternFallsBackToSubstring(t *testing.T) {
	ruleSet := []models.Rule{{Pattern: "precio (mayorista", Response: "Escríbenos al correo"}}

	got, ok := Match("cual es el PRECIO (MAYORISTA?", ruleSet)
	assert.True(t, ok)
	assert.Equal(t, "Escríbenos al correo", got)

	_, ok = Match("precio minorista", ruleSet)
	assert.False(t, ok)
}

func TestMatch_SkipsIncompleteRules(t *testing.T) {
	ruleSet := []models.Rule{
		{Pattern: "", Response: "empty pattern"},
		{Pattern: "hola", Response: ""},
	}

	_, ok := Match("hola", ruleSet)
	assert.False(t, ok)
}

func TestMatch_NoRules(t *testing.T) {
	_, ok := Match("hola", nil)
	assert.False(t, ok)
}
