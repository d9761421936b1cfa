// Package rules evaluates operator-configured pattern/response overrides.
package rules

import (
	"regexp"
	"strings"
	"sync"

	"chatsales_api/internal/sales/models"
)

type compiled struct {
	re *regexp.Regexp
	ok bool
}

var cache sync.Map // pattern -> compiled

// Match returns the response of the first rule whose pattern matches text.
// Patterns are case-insensitive regular expressions; a pattern that does not compile is
// treated as a plain substring. Rules with an empty pattern or response are skipped.
func Match(text string, ruleSet []models.Rule) (string, bool) {
	message := strings.ToLower(strings.TrimSpace(text))

	for _, rule := range ruleSet {
		if rule.Pattern == "" || rule.Response == "" {
			continue
		}
		if matches(rule.Pattern, message) {
			return rule.Response, true
		}
	}
	return "", false
}

func matches(pattern, message string) bool {
	c := compile(pattern)
	if c.ok {
		return c.re.MatchString(message)
	}
	return strings.Contains(message, strings.ToLower(pattern))
}

func compile(pattern string) compiled {
	if v, ok := cache.Load(pattern); ok {
		return v.(compiled)
	}
	re, err := regexp.Compile("(?i)" + pattern)
	c := compiled{re: re, ok: err == nil}
	cache.Store(pattern, c)
	return c
}
