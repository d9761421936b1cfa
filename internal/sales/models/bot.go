package models

// Rule is an operator-configured override checked before automatic logic.
type Rule struct {
	Pattern  string `json:"pattern" yaml:"pattern"`
	Response string `json:"response" yaml:"response"`
}

type Bot struct {
	ID                 int64
	TenantID           string
	Name               string
	Active             bool
	HybridMode         bool
	Plan               string
	SystemInstructions string
	Rules              []Rule
}
