package pricing

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"pharmamind/m/domain"
)

// History answers the two purchase-history questions the engine and the entry form ask.
// The bool result is false when no matching line exists.
type History interface {
	LastPurchase(name string) (domain.CalculatedItem, bool)
	LastPurchaseWithBonus(name string) (domain.CalculatedItem, bool)
}

// NormalizeName is the key two item names must share to be the same item:
// trimmed, NFC composed and case folded.
func NormalizeName(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// Scan is a History over invoices in store order, newest invoice first.
// Every lookup walks the whole slice; the first match wins.
type Scan []domain.Invoice

func (s Scan) LastPurchase(name string) (domain.CalculatedItem, bool) {
	return s.find(name, false)
}

func (s Scan) LastPurchaseWithBonus(name string) (domain.CalculatedItem, bool) {
	return s.find(name, true)
}

func (s Scan) find(name string, needBonus bool) (domain.CalculatedItem, bool) {
	key := NormalizeName(name)
	for _, inv := range s {
		for _, item := range inv.Items {
			if NormalizeName(item.Name) != key {
				continue
			}
			if needBonus && item.Bonus <= 0 {
				continue
			}
			return item, true
		}
	}
	return domain.CalculatedItem{}, false
}
