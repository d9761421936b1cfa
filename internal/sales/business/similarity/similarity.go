// Package similarity provides the token similarity strategies used for fuzzy keyword and
// product matching.
package similarity

import "github.com/pmezard/go-difflib/difflib"

// Strategy scores how alike two strings are, in [0, 1].
type Strategy interface {
	Ratio(a, b string) float64
}

// SequenceRatio is difflib's ratio, 2*M / (len(a)+len(b)), computed over runes so
// accented letters count once.
type SequenceRatio struct{}

func (SequenceRatio) Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Closest returns the candidate with the highest ratio at or above threshold.
// Ties keep the earliest candidate.
func Closest(s Strategy, word string, candidates []string, threshold float64) (string, float64, bool) {
	best, bestScore := "", 0.0
	for _, c := range candidates {
		r := s.Ratio(word, c)
		if r >= threshold && r > bestScore {
			best, bestScore = c, r
		}
	}
	return best, bestScore, best != ""
}
