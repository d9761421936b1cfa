// Package matcher resolves free text to a catalog product.
package matcher

import (
	"sort"
	"strings"

	"chatsales_api/internal/sales/models"
	"chatsales_api/pkg/textnorm"
)

const DefaultOverlap = 0.6

type MatchKind string

const (
	ByToken     MatchKind = "token"
	BySubstring MatchKind = "substring"
	ByOverlap   MatchKind = "overlap"
)

type Match struct {
	Product models.Product
	Kind    MatchKind
	Score   float64
}

type ProductMatcher struct {
	overlap float64
}

func NewProductMatcher(overlap float64) *ProductMatcher {
	if overlap <= 0 {
		overlap = DefaultOverlap
	}
	return &ProductMatcher{overlap: overlap}
}

// Match runs, in order: explicit prod_<id> token, longest-name substring, token overlap.
// It does not modify products.
func (m *ProductMatcher) Match(text string, products []models.Product) (Match, bool) {
	if id, ok := models.ParseProductToken(text); ok {
		for _, p := range products {
			if p.ID == id {
				return Match{Product: p, Kind: ByToken, Score: 1}, true
			}
		}
	}

	message := textnorm.Fold(text)
	if message == "" {
		return Match{}, false
	}

	byLength := make([]models.Product, len(products))
	copy(byLength, products)
	sort.SliceStable(byLength, func(i, j int) bool {
		return len([]rune(byLength[i].Name)) > len([]rune(byLength[j].Name))
	})
	for _, p := range byLength {
		name := textnorm.Fold(p.Name)
		if name != "" && strings.Contains(message, name) {
			return Match{Product: p, Kind: BySubstring, Score: 1}, true
		}
	}

	msgTokens := make(map[string]struct{})
	for _, tok := range textnorm.Tokenize(text) {
		msgTokens[tok] = struct{}{}
	}

	var best Match
	found := false
	for _, p := range products {
		nameTokens := textnorm.Tokenize(p.Name)
		if len(nameTokens) == 0 {
			continue
		}
		hits := 0
		for _, tok := range nameTokens {
			if _, ok := msgTokens[tok]; ok {
				hits++
			}
		}
		score := float64(hits) / float64(len(nameTokens))
		if score > m.overlap && score > best.Score {
			best = Match{Product: p, Kind: ByOverlap, Score: score}
			found = true
		}
	}
	return best, found
}
