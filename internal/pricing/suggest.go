package pricing

import (
	"strings"
	"unicode/utf8"

	"pharmamind/m/domain"
)

// MinLookupNameLength is the shortest name the entry form looks up while the owner types.
const MinLookupNameLength = 3

// SuggestBonus returns a past purchase of name that came with bonus units at a larger quantity
// than qty, so the owner can raise the order to reach the bonus threshold. Nothing is suggested
// when the current line already has a bonus or no quantity.
func SuggestBonus(h History, name string, qty, bonus float64) (domain.CalculatedItem, bool) {
	if bonus != 0 || qty <= 0 {
		return domain.CalculatedItem{}, false
	}
	past, ok := h.LastPurchaseWithBonus(name)
	if !ok || past.Qty <= qty {
		return domain.CalculatedItem{}, false
	}
	return past, true
}

// Lookup is what the entry form shows next to the name field.
type Lookup struct {
	LastPurchase    *domain.CalculatedItem `json:"last_purchase,omitempty"`
	BonusSuggestion *domain.CalculatedItem `json:"bonus_suggestion,omitempty"`
}

// LookupFor gathers the last purchase and the bonus suggestion for a partially entered line.
// Names shorter than MinLookupNameLength yield an empty result.
func LookupFor(h History, name string, qty, bonus float64) Lookup {
	var out Lookup
	if utf8.RuneCountInString(strings.TrimSpace(name)) < MinLookupNameLength {
		return out
	}
	if last, ok := h.LastPurchase(name); ok {
		out.LastPurchase = &last
	}
	if s, ok := SuggestBonus(h, name, qty, bonus); ok {
		out.BonusSuggestion = &s
	}
	return out
}
