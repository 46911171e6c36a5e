package domain

import "math"

// ItemInput is a line item as entered by the owner, before any calculation.
type ItemInput struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Category            Category `json:"category"`
	Qty                 float64  `json:"qty"`
	Bonus               float64  `json:"bonus"`
	PublicPrice         float64  `json:"public_price"`
	PharmaPrice         float64  `json:"pharma_price"`
	SupplierDiscountVal float64  `json:"supplier_discount_val"`
	ExtraDiscountPct    float64  `json:"extra_discount_pct"`
	TaxValue            float64  `json:"tax_value"`
	TaxMode             TaxMode  `json:"tax_mode"`
}

// MaxInputValue caps every numeric field of an ItemInput. Anything above it is a typo, and
// products of such values overflow float64.
const MaxInputValue = 1e9

// InRange reports whether every numeric field is finite, non-negative and at most MaxInputValue.
func (in ItemInput) InRange() bool {
	for _, v := range in.numbers() {
		if math.IsNaN(v) || v < 0 || v > MaxInputValue {
			return false
		}
	}
	return true
}

func (in ItemInput) numbers() []float64 {
	return []float64{in.Qty, in.Bonus, in.PublicPrice, in.PharmaPrice, in.SupplierDiscountVal, in.ExtraDiscountPct, in.TaxValue}
}

// Verdict is the outcome of comparing a line with the last purchase of the same item.
type Verdict string

const (
	VerdictNew    Verdict = "new"
	VerdictBetter Verdict = "better"
	VerdictWorse  Verdict = "worse"
	VerdictSame   Verdict = "same"
)

// PriceComparison is present only when a prior purchase of the same item exists.
// SavingsVsHistory is positive for savings, negative for losses and zero for VerdictSame.
type PriceComparison struct {
	Verdict            Verdict `json:"verdict"`
	PriceDifferencePct float64 `json:"price_difference_pct"`
	SavingsVsHistory   float64 `json:"savings_vs_history,omitempty"`
}

// CalculatedItem is an ItemInput with every derived cost field filled in.
// It is a value and is never recalculated in place.
type CalculatedItem struct {
	ItemInput

	TotalUnits            float64 `json:"total_units"`
	BaseTotal             float64 `json:"base_total"`
	CategoryDiscountValue float64 `json:"category_discount_value"`
	AfterCategoryDiscount float64 `json:"after_category_discount"`
	ExtraDiscountValue    float64 `json:"extra_discount_value"`
	TaxTotal              float64 `json:"tax_total"`
	NetTotalCost          float64 `json:"net_total_cost"`
	NetUnitCost           float64 `json:"net_unit_cost"`
	RealDiscountPct       float64 `json:"real_discount_pct"`

	// Comparison is nil when the item was never bought before.
	Comparison     *PriceComparison `json:"comparison,omitempty"`
	IsFakeDiscount bool             `json:"is_fake_discount"`
}

// Verdict returns VerdictNew when there is no comparison.
func (c CalculatedItem) Verdict() Verdict {
	if c.Comparison == nil {
		return VerdictNew
	}
	return c.Comparison.Verdict
}

// Finite reports whether no input, derived or comparison value is NaN or infinite.
// Non-finite lines cannot be encoded as JSON and must never be stored.
func (c CalculatedItem) Finite() bool {
	values := append(c.numbers(), c.TotalUnits, c.BaseTotal, c.CategoryDiscountValue, c.AfterCategoryDiscount,
		c.ExtraDiscountValue, c.TaxTotal, c.NetTotalCost, c.NetUnitCost, c.RealDiscountPct)
	if c.Comparison != nil {
		values = append(values, c.Comparison.PriceDifferencePct, c.Comparison.SavingsVsHistory)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
