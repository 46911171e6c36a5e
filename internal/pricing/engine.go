// Package pricing computes the net cost of purchased line items and compares them with purchase history.
package pricing

import (
	"math"

	"pharmamind/m/domain"
)

const (
	// HistoryEpsilon absorbs float noise when comparing unit costs with history.
	// Tunable; it has no documented business derivation.
	HistoryEpsilon = 0.001

	// FakeDiscountTolerance is how many percentage points the real discount may trail the
	// nominal category discount before the line is flagged. Tunable heuristic.
	FakeDiscountTolerance = 5.0
)

// Engine calculates line items. The only state it reads besides its arguments is the history.
type Engine struct {
	history History
}

// NewEngine returns an engine backed by h. A nil history treats every item as new.
func NewEngine(h History) *Engine {
	if h == nil {
		h = Scan(nil)
	}
	return &Engine{history: h}
}

// Calculate applies the category discount, the extra percentage discount, the flat supplier
// discount and tax, in that order, then annotates the result with history and the fake
// discount heuristic. It never fails; degenerate input produces zero totals.
func (e *Engine) Calculate(in domain.ItemInput, settings domain.Settings) domain.CalculatedItem {
	rate := settings.RateFor(in.Category)

	totalUnits := in.Qty + in.Bonus
	baseTotal := in.PharmaPrice * in.Qty

	categoryDiscount := baseTotal * rate
	afterCategory := baseTotal - categoryDiscount

	extraDiscount := afterCategory * (in.ExtraDiscountPct / 100)
	subtotal := afterCategory - extraDiscount

	subtotal -= in.SupplierDiscountVal

	var tax float64
	if in.TaxMode == domain.TaxPerUnit {
		// bonus units are never taxed
		tax = in.TaxValue * in.Qty
	} else {
		tax = in.TaxValue
	}

	netTotal := subtotal + tax

	var netUnit float64
	if totalUnits > 0 {
		netUnit = netTotal / totalUnits
	}

	// no units means no unit cost, so there is nothing to compare with the public price
	var realDiscount float64
	if in.PublicPrice > 0 && totalUnits > 0 {
		realDiscount = (1 - netUnit/in.PublicPrice) * 100
	}

	item := domain.CalculatedItem{
		ItemInput:             in,
		TotalUnits:            totalUnits,
		BaseTotal:             baseTotal,
		CategoryDiscountValue: categoryDiscount,
		AfterCategoryDiscount: afterCategory,
		ExtraDiscountValue:    extraDiscount,
		TaxTotal:              tax,
		NetTotalCost:          netTotal,
		NetUnitCost:           netUnit,
		RealDiscountPct:       realDiscount,
	}

	if prior, ok := e.history.LastPurchase(in.Name); ok {
		item.Comparison = Compare(netUnit, totalUnits, prior)
	}
	item.IsFakeDiscount = IsFakeDiscount(realDiscount, rate*100)

	return item
}

// Compare builds the comparison of a unit cost against a prior purchase.
func Compare(netUnit, totalUnits float64, prior domain.CalculatedItem) *domain.PriceComparison {
	diff := netUnit - prior.NetUnitCost

	c := &domain.PriceComparison{Verdict: domain.VerdictSame}
	if prior.NetUnitCost > 0 {
		c.PriceDifferencePct = math.Abs(diff/prior.NetUnitCost) * 100
	}

	switch {
	case diff < -HistoryEpsilon:
		c.Verdict = domain.VerdictBetter
		c.SavingsVsHistory = math.Abs(diff) * totalUnits
	case diff > HistoryEpsilon:
		c.Verdict = domain.VerdictWorse
		c.SavingsVsHistory = -math.Abs(diff) * totalUnits
	}
	return c
}

// IsFakeDiscount reports whether the real discount trails the nominal one by more than the tolerance.
// It fires whenever fees, tax or a poor bonus ratio erode an advertised discount; it is not proof
// that a supplier misrepresented anything.
func IsFakeDiscount(realPct, nominalPct float64) bool {
	return realPct < nominalPct-FakeDiscountTolerance
}
