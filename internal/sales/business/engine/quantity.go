package engine

import (
	"errors"
	"regexp"
	"strconv"

	"chatsales_api/pkg/textnorm"
)

// Explicit quantity forms: "3 de", "3x", "x3", "3 unidades".
var quantityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|[^\w])(\d+)\s*(?:x|de|unidad|unidades|u)\b`),
	regexp.MustCompile(`(?:^|[^\w])x\s*(\d+)\b`),
}

// ParseQuantity returns the explicit quantity in text, 1 when there is none,
// never more than max.
func ParseQuantity(text string, max int) int {
	folded := textnorm.Fold(text)
	for _, re := range quantityPatterns {
		m := re.FindStringSubmatch(folded)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		switch {
		case errors.Is(err, strconv.ErrRange) && max > 0:
			return max
		case err != nil || n <= 0:
			return 1
		case max > 0 && n > max:
			return max
		}
		return n
	}
	return 1
}
