package models

import (
	"fmt"
	"regexp"
	"strconv"
)

// Menu ids emitted in interactive replies and recognized on the next turn.
const (
	ActionCatalog   = "catalog"
	ActionViewCart  = "view_cart"
	ActionCheckout  = "checkout"
	ActionClearCart = "clear_cart"
)

var (
	productTokenRe  = regexp.MustCompile(`\bprod_(\d+)\b`)
	categoryTokenRe = regexp.MustCompile(`\bcat_(\d+)\b`)
)

func ProductToken(id int64) string  { return fmt.Sprintf("prod_%d", id) }
func CategoryToken(id int64) string { return fmt.Sprintf("cat_%d", id) }

// ProductQuantityToken selects a product with a quantity, as in "3 x prod_7".
// The engine reads the quantity with ParseQuantity and the id with ParseProductToken.
func ProductQuantityToken(id int64, qty int) string {
	return fmt.Sprintf("%d x %s", qty, ProductToken(id))
}

// ParseProductToken extracts the id from a "prod_<id>" token anywhere in text.
func ParseProductToken(text string) (int64, bool) {
	return parseToken(productTokenRe, text)
}

func ParseCategoryToken(text string) (int64, bool) {
	return parseToken(categoryTokenRe, text)
}

func parseToken(re *regexp.Regexp, text string) (int64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
