package domain

import (
	"errors"
	"time"
)

var (
	ErrEmptyInvoice    = errors.New("invoice has no items")
	ErrMissingSupplier = errors.New("invoice requires a supplier")
)

// Invoice is a finalized supplier purchase. Only the sold fields change after creation.
type Invoice struct {
	ID             string           `json:"id"`
	Date           string           `json:"date"`
	InvoiceNumber  string           `json:"invoice_number,omitempty"`
	SupplierID     string           `json:"supplier_id,omitempty"`
	SupplierName   string           `json:"supplier_name,omitempty"`
	Items          []CalculatedItem `json:"items"`
	TotalValue     float64          `json:"total_value"`
	TotalItems     int              `json:"total_items"`
	TotalUnits     float64          `json:"total_units"`
	IsSold         bool             `json:"is_sold,omitempty"`
	SoldToClientID string           `json:"sold_to_client_id,omitempty"`
	SoldDate       string           `json:"sold_date,omitempty"`
}

// DisplayNumber is the invoice number, or the last four characters of the id when none was entered.
func (inv Invoice) DisplayNumber() string {
	if inv.InvoiceNumber != "" {
		return inv.InvoiceNumber
	}
	if len(inv.ID) <= 4 {
		return inv.ID
	}
	return inv.ID[len(inv.ID)-4:]
}

// NewInvoice finalizes calculated lines into an invoice with its aggregate totals.
func NewInvoice(id, number string, supplier Supplier, items []CalculatedItem, at time.Time) (Invoice, error) {
	if len(items) == 0 {
		return Invoice{}, ErrEmptyInvoice
	}
	if supplier.ID == "" {
		return Invoice{}, ErrMissingSupplier
	}
	lines := make([]CalculatedItem, len(items))
	copy(lines, items)

	totals := sumLines(lines)
	return Invoice{
		ID:            id,
		Date:          at.UTC().Format(time.RFC3339Nano),
		InvoiceNumber: number,
		SupplierID:    supplier.ID,
		SupplierName:  supplier.Name,
		Items:         lines,
		TotalValue:    totals.Value,
		TotalItems:    totals.Items,
		TotalUnits:    totals.Units,
	}, nil
}

// Time parses the invoice date. A malformed date yields the zero time.
func (inv Invoice) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, inv.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DraftTotals summarizes lines that are not yet saved.
type DraftTotals struct {
	Value float64 `json:"total_value"`
	Items int     `json:"total_items"`
	Units float64 `json:"total_units"`
}

func sumLines(items []CalculatedItem) DraftTotals {
	var t DraftTotals
	for _, item := range items {
		t.Value += item.NetTotalCost
		t.Units += item.TotalUnits
	}
	t.Items = len(items)
	return t
}

// Draft is the in-progress list of calculated lines behind the entry form.
type Draft struct {
	items []CalculatedItem
}

func (d *Draft) Add(item CalculatedItem) {
	d.items = append(d.items, item)
}

// Remove drops the line with the given id. Corrections are made by removing and re-adding a line.
func (d *Draft) Remove(id string) bool {
	for i, item := range d.items {
		if item.ID == id {
			d.items = append(d.items[:i], d.items[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Draft) Items() []CalculatedItem {
	out := make([]CalculatedItem, len(d.items))
	copy(out, d.items)
	return out
}

func (d *Draft) Totals() DraftTotals {
	return sumLines(d.items)
}

// Grouped returns the lines per category, keeping entry order inside each group.
func (d *Draft) Grouped() map[Category][]CalculatedItem {
	groups := make(map[Category][]CalculatedItem)
	for _, item := range d.items {
		groups[item.Category] = append(groups[item.Category], item)
	}
	return groups
}

// Finalize builds the invoice and leaves the draft untouched so a failed save can be retried.
func (d *Draft) Finalize(id, number string, supplier Supplier, at time.Time) (Invoice, error) {
	return NewInvoice(id, number, supplier, d.items, at)
}
