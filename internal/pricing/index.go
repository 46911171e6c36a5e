package pricing

import (
	"sync"

	"pharmamind/m/domain"
)

// Index is a History keyed by normalized item name. It answers exactly what Scan answers for the
// same invoices, without walking them on every lookup.
type Index struct {
	mu        sync.RWMutex
	last      map[string]domain.CalculatedItem
	withBonus map[string]domain.CalculatedItem
}

// NewIndex builds an index from invoices in store order, newest first.
func NewIndex(invoices []domain.Invoice) *Index {
	idx := &Index{}
	idx.Rebuild(invoices)
	return idx
}

// Rebuild discards the index and rebuilds it. Used after deletes and restores.
func (idx *Index) Rebuild(invoices []domain.Invoice) {
	last := make(map[string]domain.CalculatedItem)
	withBonus := make(map[string]domain.CalculatedItem)
	for _, inv := range invoices {
		for _, item := range inv.Items {
			key := NormalizeName(item.Name)
			if _, ok := last[key]; !ok {
				last[key] = item
			}
			if item.Bonus > 0 {
				if _, ok := withBonus[key]; !ok {
					withBonus[key] = item
				}
			}
		}
	}

	idx.mu.Lock()
	idx.last = last
	idx.withBonus = withBonus
	idx.mu.Unlock()
}

// Prepend records a newly saved invoice, which becomes the newest in store order.
// Within the invoice the first matching line still wins.
func (idx *Index) Prepend(inv domain.Invoice) {
	seen := make(map[string]bool)
	seenBonus := make(map[string]bool)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.last == nil {
		idx.last = make(map[string]domain.CalculatedItem)
		idx.withBonus = make(map[string]domain.CalculatedItem)
	}
	for _, item := range inv.Items {
		key := NormalizeName(item.Name)
		if !seen[key] {
			idx.last[key] = item
			seen[key] = true
		}
		if item.Bonus > 0 && !seenBonus[key] {
			idx.withBonus[key] = item
			seenBonus[key] = true
		}
	}
}

func (idx *Index) LastPurchase(name string) (domain.CalculatedItem, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	item, ok := idx.last[NormalizeName(name)]
	return item, ok
}

func (idx *Index) LastPurchaseWithBonus(name string) (domain.CalculatedItem, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	item, ok := idx.withBonus[NormalizeName(name)]
	return item, ok
}

// Len is the number of distinct item names indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.last)
}
