package pricing

import (
	"testing"

	"pharmamind/m/domain"
)

func TestSuggestBonus(t *testing.T) {
	tests := []struct {
		name    string
		history []domain.Invoice
		qty     float64
		bonus   float64
		want    bool
	}{
		{"larger past quantity with bonus", []domain.Invoice{pastInvoice("1", line("h", "X", 10, 2, 1))}, 5, 0, true},
		{"smaller past quantity", []domain.Invoice{pastInvoice("1", line("h", "X", 4, 1, 1))}, 5, 0, false},
		{"equal past quantity", []domain.Invoice{pastInvoice("1", line("h", "X", 5, 1, 1))}, 5, 0, false},
		{"current line has bonus", []domain.Invoice{pastInvoice("1", line("h", "X", 10, 2, 1))}, 5, 1, false},
		{"no quantity yet", []domain.Invoice{pastInvoice("1", line("h", "X", 10, 2, 1))}, 0, 0, false},
		{"past purchase without bonus", []domain.Invoice{pastInvoice("1", line("h", "X", 10, 0, 1))}, 5, 0, false},
		{"no history", nil, 5, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SuggestBonus(Scan(tt.history), "x", tt.qty, tt.bonus)
			if ok != tt.want {
				t.Fatalf("SuggestBonus ok = %v, want %v", ok, tt.want)
			}
			if ok && got.ID != "h" {
				t.Errorf("suggested %q, want the historical record", got.ID)
			}
		})
	}
}

func TestLookupFor(t *testing.T) {
	h := NewIndex([]domain.Invoice{pastInvoice("1", line("h", "Zyrtec", 10, 2, 1))})

	if got := LookupFor(h, "Zy", 5, 0); got.LastPurchase != nil || got.BonusSuggestion != nil {
		t.Errorf("short names should not be looked up, got %+v", got)
	}
	if got := LookupFor(h, "  Zy ", 5, 0); got.LastPurchase != nil {
		t.Errorf("padding should not lift a short name over the gate, got %+v", got)
	}
	if got := LookupFor(h, " Zyrtec ", 5, 0); got.LastPurchase == nil {
		t.Error("padded full name should still be looked up")
	}

	got := LookupFor(h, "zyrtec", 5, 0)
	if got.LastPurchase == nil || got.LastPurchase.ID != "h" {
		t.Fatalf("expected last purchase, got %+v", got.LastPurchase)
	}
	if got.BonusSuggestion == nil {
		t.Error("expected bonus suggestion")
	}

	got = LookupFor(h, "zyrtec", 12, 0)
	if got.BonusSuggestion != nil {
		t.Error("no suggestion once the quantity exceeds the bonus deal")
	}
}
