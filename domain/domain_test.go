package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func line(id string, cat Category, net, units float64) CalculatedItem {
	return CalculatedItem{
		ItemInput:    ItemInput{ID: id, Name: id, Category: cat},
		NetTotalCost: net,
		TotalUnits:   units,
	}
}

func TestSettings_RateFor(t *testing.T) {
	s := DefaultSettings()
	tests := []struct {
		cat  Category
		want float64
	}{
		{CategoryNormal, 0.2},
		{CategorySpecial, 0.1},
		{CategoryOther, 0},
		{"UNKNOWN", 0},
	}
	for _, tt := range tests {
		if got := s.RateFor(tt.cat); got != tt.want {
			t.Errorf("RateFor(%s) = %v, want %v", tt.cat, got, tt.want)
		}
	}
}

func TestCategory_Presentation(t *testing.T) {
	if CategoryNormal.Short() != "REG" || CategorySpecial.Short() != "SPE" || CategoryOther.Short() != "OTH" {
		t.Error("unexpected short codes")
	}
	if Category("X").Valid() || Category("X").Label() != "X" {
		t.Error("unknown category should be invalid and labelled by its key")
	}
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
	if !TaxPerUnit.Valid() || TaxMode("").Valid() || TaxTotal.Label() != "Total" {
		t.Error("unexpected tax mode helpers")
	}
}

func TestNewInvoice(t *testing.T) {
	at := time.Date(2024, 5, 2, 10, 0, 0, 0, time.FixedZone("EET", 2*60*60))
	sup := Supplier{ID: "s1", Name: "Ibn Sina"}

	if _, err := NewInvoice("id", "", sup, nil, at); !errors.Is(err, ErrEmptyInvoice) {
		t.Errorf("expected ErrEmptyInvoice, got %v", err)
	}
	if _, err := NewInvoice("id", "", Supplier{}, []CalculatedItem{line("a", CategoryNormal, 1, 1)}, at); !errors.Is(err, ErrMissingSupplier) {
		t.Errorf("expected ErrMissingSupplier, got %v", err)
	}

	items := []CalculatedItem{line("a", CategoryNormal, 100, 11), line("b", CategoryOther, 50.5, 2)}
	inv, err := NewInvoice("0f1e2d3c", "", sup, items, at)
	if err != nil {
		t.Fatal(err)
	}
	if inv.TotalValue != 150.5 || inv.TotalItems != 2 || inv.TotalUnits != 13 {
		t.Errorf("totals = %v %v %v", inv.TotalValue, inv.TotalItems, inv.TotalUnits)
	}
	if inv.SupplierName != "Ibn Sina" || inv.IsSold {
		t.Errorf("unexpected invoice %+v", inv)
	}
	if !inv.Time().Equal(at) || inv.Date != "2024-05-02T08:00:00Z" {
		t.Errorf("date = %s", inv.Date)
	}
	if inv.DisplayNumber() != "2d3c" {
		t.Errorf("DisplayNumber = %s", inv.DisplayNumber())
	}

	items[0].Name = "changed"
	if inv.Items[0].Name != "a" {
		t.Error("invoice shares its item slice with the caller")
	}
}

func TestDraft(t *testing.T) {
	var d Draft
	d.Add(line("a", CategoryNormal, 10, 1))
	d.Add(line("b", CategorySpecial, 20, 2))
	d.Add(line("c", CategoryNormal, 30, 3))

	groups := d.Grouped()
	if len(groups[CategoryNormal]) != 2 || groups[CategoryNormal][1].ID != "c" || len(groups[CategorySpecial]) != 1 {
		t.Errorf("groups = %+v", groups)
	}

	if !d.Remove("b") || d.Remove("missing") {
		t.Error("unexpected Remove results")
	}
	if totals := d.Totals(); totals.Value != 40 || totals.Items != 2 || totals.Units != 4 {
		t.Errorf("totals = %+v", totals)
	}

	if _, err := d.Finalize("id", "", Supplier{}, time.Now()); err == nil {
		t.Error("expected error without supplier")
	}
	if len(d.Items()) != 2 {
		t.Error("failed finalize should leave the draft intact")
	}
	inv, err := d.Finalize("id", "N-1", Supplier{ID: "s"}, time.Now())
	if err != nil || inv.DisplayNumber() != "N-1" {
		t.Errorf("Finalize = %+v, %v", inv, err)
	}
}

func TestTransaction_Signed(t *testing.T) {
	sale := ClientTransaction{Type: TransactionSale, Amount: 30}
	pay := ClientTransaction{Type: TransactionPayment, Amount: 30}
	if sale.Signed() != 30 || pay.Signed() != -30 {
		t.Errorf("signed = %v, %v", sale.Signed(), pay.Signed())
	}
	if TransactionType("REFUND").Valid() {
		t.Error("REFUND should be invalid")
	}
}

func TestItemInput_InRange(t *testing.T) {
	tests := []struct {
		name string
		in   ItemInput
		want bool
	}{
		{"typical", ItemInput{Qty: 10, Bonus: 2, PublicPrice: 50, PharmaPrice: 40, TaxValue: 3}, true},
		{"at limit", ItemInput{Qty: MaxInputValue, PharmaPrice: 1}, true},
		{"above limit", ItemInput{Qty: 1, PharmaPrice: 1, TaxValue: 1e308}, false},
		{"negative", ItemInput{Qty: -1, PharmaPrice: 1}, false},
		{"infinite", ItemInput{Qty: 1, PublicPrice: math.Inf(1)}, false},
		{"nan", ItemInput{Qty: 1, Bonus: math.NaN()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.InRange(); got != tt.want {
				t.Errorf("InRange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculatedItem_Finite(t *testing.T) {
	ok := line("a", CategoryNormal, 10, 1)
	if !ok.Finite() {
		t.Error("plain line reported as non-finite")
	}

	overflow := ok
	overflow.NetUnitCost = math.Inf(1)
	if overflow.Finite() {
		t.Error("infinite unit cost not detected")
	}

	compared := ok
	compared.Comparison = &PriceComparison{Verdict: VerdictWorse, PriceDifferencePct: math.NaN()}
	if compared.Finite() {
		t.Error("NaN comparison not detected")
	}
}
