// Package report aggregates saved invoices into spending summaries.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pharmamind/m/domain"
)

// DayLayout is the calendar day format used by report ranges.
const DayLayout = "2006-01-02"

// Money is a sum of currency amounts, serialized with two decimals.
type Money struct {
	decimal.Decimal
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

func sum(values ...float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}

// Range is an inclusive span of calendar days. An empty bound is open.
type Range struct {
	From string
	To   string
}

// ParseRange validates both bounds as YYYY-MM-DD.
func ParseRange(from, to string) (Range, error) {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(DayLayout, d); err != nil {
			return Range{}, fmt.Errorf("invalid day %q: want YYYY-MM-DD", d)
		}
	}
	if from != "" && to != "" && from > to {
		return Range{}, fmt.Errorf("range start %s is after end %s", from, to)
	}
	return Range{From: from, To: to}, nil
}

func (r Range) Contains(day string) bool {
	if r.From != "" && day < r.From {
		return false
	}
	if r.To != "" && day > r.To {
		return false
	}
	return true
}

func invoiceDay(inv domain.Invoice, loc *time.Location) string {
	return inv.Time().In(loc).Format(DayLayout)
}

type DailyTotal struct {
	Day    int   `json:"day"`
	Amount Money `json:"amount"`
}

type MonthlySummary struct {
	Year               int          `json:"year"`
	Month              time.Month   `json:"month"`
	TotalSpent         Money        `json:"total_spent"`
	InvoiceCount       int          `json:"invoice_count"`
	AverageDiscountPct float64      `json:"average_discount_pct"`
	Daily              []DailyTotal `json:"daily"`
}

// Monthly summarizes the invoices dated in the given month. The average real discount is
// taken over every line of those invoices and is 0 when there are none.
func Monthly(invoices []domain.Invoice, year int, month time.Month, loc *time.Location) MonthlySummary {
	out := MonthlySummary{Year: year, Month: month, Daily: []DailyTotal{}}

	var days [31]decimal.Decimal
	total := decimal.Zero
	discountPoints := decimal.Zero
	lines := 0
	for _, inv := range invoices {
		at := inv.Time().In(loc)
		if at.Year() != year || at.Month() != month {
			continue
		}
		out.InvoiceCount++
		value := decimal.NewFromFloat(inv.TotalValue)
		total = total.Add(value)
		days[at.Day()-1] = days[at.Day()-1].Add(value)
		for _, item := range inv.Items {
			discountPoints = discountPoints.Add(decimal.NewFromFloat(item.RealDiscountPct))
			lines++
		}
	}

	out.TotalSpent = Money{total}
	if lines > 0 {
		out.AverageDiscountPct = discountPoints.Div(decimal.NewFromInt(int64(lines))).InexactFloat64()
	}
	for i, amount := range days {
		if amount.IsPositive() {
			out.Daily = append(out.Daily, DailyTotal{Day: i + 1, Amount: Money{amount}})
		}
	}
	return out
}

type ExtraDiscountLine struct {
	domain.CalculatedItem
	SupplierName string `json:"supplier_name"`
	InvoiceDate  string `json:"invoice_date"`
}

type ExtraDiscountReport struct {
	Lines           []ExtraDiscountLine `json:"lines"`
	TotalExtraValue Money               `json:"total_extra_value"`
}

// ExtraDiscounts lists every line that received an extra percentage discount within the range.
// An empty supplierID matches all suppliers.
func ExtraDiscounts(invoices []domain.Invoice, r Range, supplierID string, loc *time.Location) ExtraDiscountReport {
	out := ExtraDiscountReport{Lines: []ExtraDiscountLine{}}
	total := decimal.Zero
	for _, inv := range invoices {
		if !r.Contains(invoiceDay(inv, loc)) {
			continue
		}
		if supplierID != "" && inv.SupplierID != supplierID {
			continue
		}
		for _, item := range inv.Items {
			if item.ExtraDiscountValue <= 0 && item.ExtraDiscountPct <= 0 {
				continue
			}
			out.Lines = append(out.Lines, ExtraDiscountLine{
				CalculatedItem: item,
				SupplierName:   inv.SupplierName,
				InvoiceDate:    inv.Date,
			})
			total = total.Add(decimal.NewFromFloat(item.ExtraDiscountValue))
		}
	}
	out.TotalExtraValue = Money{total}
	return out
}

type StatementLine struct {
	domain.CalculatedItem
	InvoiceID   string `json:"invoice_id"`
	InvoiceDate string `json:"invoice_date"`
}

type SupplierStatement struct {
	SupplierID     string          `json:"supplier_id"`
	TotalPurchases Money           `json:"total_purchases"`
	TotalItems     int             `json:"total_items"`
	InvoiceCount   int             `json:"invoice_count"`
	Lines          []StatementLine `json:"lines"`
}

// Statement totals what was bought from one supplier within the range.
func Statement(invoices []domain.Invoice, supplierID string, r Range, loc *time.Location) SupplierStatement {
	out := SupplierStatement{SupplierID: supplierID, Lines: []StatementLine{}}
	var values []float64
	for _, inv := range invoices {
		if inv.SupplierID != supplierID || !r.Contains(invoiceDay(inv, loc)) {
			continue
		}
		out.InvoiceCount++
		out.TotalItems += inv.TotalItems
		values = append(values, inv.TotalValue)
		for _, item := range inv.Items {
			out.Lines = append(out.Lines, StatementLine{CalculatedItem: item, InvoiceID: inv.ID, InvoiceDate: inv.Date})
		}
	}
	out.TotalPurchases = Money{sum(values...)}
	return out
}
