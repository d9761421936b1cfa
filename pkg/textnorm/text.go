// Package textnorm holds the text helpers shared by the classifier, the product matcher
// and the reply builders.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var linkRe = regexp.MustCompile(`https?://[^\s]+`)

// Fold lower-cases s and strips diacritics, so "Catálogo" and "catalogo" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Tokenize folds s and splits it into letter/digit words.
func Tokenize(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Truncate cuts s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if max <= 0 || len(r) <= max {
		return string(r)
	}
	if max == 1 {
		return string(r[:1])
	}
	return strings.TrimSpace(string(r[:max-1])) + "…"
}

// ReduceToLength keeps whole words while the result fits in length runes.
func ReduceToLength(input string, length int) string {
	var builder strings.Builder
	total := 0

	for i, word := range strings.Fields(input) {
		n := len([]rune(word))
		if i > 0 {
			n++
		}
		if total+n > length {
			break
		}
		if i > 0 {
			builder.WriteString(" ")
		}
		builder.WriteString(word)
		total += n
	}

	return builder.String()
}

func RemoveLinks(input string) string {
	return strings.TrimSpace(linkRe.ReplaceAllString(input, ""))
}
