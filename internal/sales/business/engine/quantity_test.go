package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"quiero running shoes", 1},
		{"quiero 3 de running shoes", 3},
		{"dame 2x running shoes", 2},
		{"running shoes x4", 4},
		{"running shoes x 4", 4},
		{"5 unidades de zapatillas", 5},
		{"1 unidad", 1},
		{"prod_12", 1},
		{"3 x prod_12", 3},
		{"quiero 500 de running shoes", 99},
		{"0 de running shoes", 1},
		{"quiero 10000 unidades de running shoes", 99},
		{"running shoes x12345", 99},
		{"99999999999999999999999 de running shoes", 99},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseQuantity(tc.text, 99), tc.text)
	}
}
