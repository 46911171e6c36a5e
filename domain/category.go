package domain

// Category selects which configured discount rate applies to a line.
type Category string

const (
	CategoryNormal  Category = "NORMAL"
	CategorySpecial Category = "SPECIAL"
	CategoryOther   Category = "OTHER"
)

// Categories lists the known categories in display order.
var Categories = []Category{CategoryNormal, CategorySpecial, CategoryOther}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryNormal, CategorySpecial, CategoryOther:
		return true
	}
	return false
}

// Label is the display name. Calculations must never branch on it.
func (c Category) Label() string {
	switch c {
	case CategoryNormal:
		return "Normal"
	case CategorySpecial:
		return "Special"
	case CategoryOther:
		return "Other"
	}
	return string(c)
}

// Short is the three letter code printed on invoices and resale notes.
func (c Category) Short() string {
	switch c {
	case CategoryNormal:
		return "REG"
	case CategorySpecial:
		return "SPE"
	case CategoryOther:
		return "OTH"
	}
	return "?"
}

// TaxMode controls whether the tax value is charged per purchased unit or once per line.
type TaxMode string

const (
	TaxPerUnit TaxMode = "PER_UNIT"
	TaxTotal   TaxMode = "TOTAL"
)

func (m TaxMode) Valid() bool {
	return m == TaxPerUnit || m == TaxTotal
}

func (m TaxMode) Label() string {
	switch m {
	case TaxPerUnit:
		return "Per unit"
	case TaxTotal:
		return "Total"
	}
	return string(m)
}
