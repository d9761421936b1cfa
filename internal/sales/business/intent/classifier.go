// Package intent scores free text against an ordered keyword table.
package intent

import (
	"chatsales_api/config/values"
	"chatsales_api/internal/sales/business/similarity"
	"chatsales_api/pkg/textnorm"
)

type Intent string

const (
	Greeting  Intent = "greeting"
	Catalog   Intent = "catalog"
	ClearCart Intent = "clear_cart"
	ViewCart  Intent = "view_cart"
	AddToCart Intent = "add_to_cart"
	Checkout  Intent = "checkout"
	Positive  Intent = "positive"
	Negative  Intent = "negative"
	General   Intent = "general"
)

type Result struct {
	Intent Intent
	Score  float64
}

type entry struct {
	intent   Intent
	keywords []string
	exact    map[string]struct{}
}

type Config struct {
	ExactWeight     float64
	FuzzyWeight     float64
	FuzzyThreshold  float64
	FuzzyMinLength  int
	ConfidenceFloor float64
}

func ConfigFromValues(v values.EngineValues) Config {
	return Config{
		ExactWeight:     v.ExactWeight,
		FuzzyWeight:     v.FuzzyWeight,
		FuzzyThreshold:  v.FuzzyThreshold,
		FuzzyMinLength:  v.FuzzyMinLength,
		ConfidenceFloor: v.ConfidenceFloor,
	}
}

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	table    []entry
	cfg      Config
	strategy similarity.Strategy
}

func NewClassifier(table []values.IntentKeywords, cfg Config, strategy similarity.Strategy) *Classifier {
	if strategy == nil {
		strategy = similarity.SequenceRatio{}
	}
	c := &Classifier{cfg: cfg, strategy: strategy}
	for _, row := range table {
		e := entry{intent: Intent(row.Name), exact: make(map[string]struct{}, len(row.Keywords))}
		for _, kw := range row.Keywords {
			folded := textnorm.Fold(kw)
			if folded == "" {
				continue
			}
			e.keywords = append(e.keywords, folded)
			e.exact[folded] = struct{}{}
		}
		c.table = append(c.table, e)
	}
	return c
}

// Classify returns the best scoring intent, or General when nothing clears the floor.
func (c *Classifier) Classify(text string) Result {
	tokens := textnorm.Tokenize(text)
	best := Result{Intent: General}

	for _, e := range c.table {
		score := c.score(tokens, e)
		if score > best.Score {
			best = Result{Intent: e.intent, Score: score}
		}
	}

	if best.Score < c.cfg.ConfidenceFloor {
		return Result{Intent: General, Score: best.Score}
	}
	return best
}

func (c *Classifier) score(tokens []string, e entry) float64 {
	score := 0.0
	for _, tok := range tokens {
		if _, ok := e.exact[tok]; ok {
			score += c.cfg.ExactWeight
			continue
		}
		if len([]rune(tok)) < c.cfg.FuzzyMinLength {
			continue
		}
		if _, _, ok := similarity.Closest(c.strategy, tok, e.keywords, c.cfg.FuzzyThreshold); ok {
			score += c.cfg.FuzzyWeight
		}
	}
	return score
}

// HasKeyword reports whether any token of text is an exact keyword of the given intent.
func (c *Classifier) HasKeyword(text string, in Intent) bool {
	for _, e := range c.table {
		if e.intent != in {
			continue
		}
		for _, tok := range textnorm.Tokenize(text) {
			if _, ok := e.exact[tok]; ok {
				return true
			}
		}
	}
	return false
}
