package domain

// Settings holds the category discount percentages and the pharmacy display name.
// It is replaced wholesale on save.
type Settings struct {
	DiscountNormal  float64 `db:"discount_normal" json:"discount_normal"`
	DiscountSpecial float64 `db:"discount_special" json:"discount_special"`
	DiscountOther   float64 `db:"discount_other" json:"discount_other"`
	PharmacyName    string  `db:"pharmacy_name" json:"pharmacy_name"`
}

// DefaultSettings is used until the owner saves settings for the first time.
func DefaultSettings() Settings {
	return Settings{
		DiscountNormal:  20,
		DiscountSpecial: 10,
		DiscountOther:   0,
		PharmacyName:    "My Smart Pharmacy",
	}
}

// RateFor returns the category discount as a fraction. Unknown categories get 0.
func (s Settings) RateFor(c Category) float64 {
	switch c {
	case CategoryNormal:
		return s.DiscountNormal / 100
	case CategorySpecial:
		return s.DiscountSpecial / 100
	case CategoryOther:
		return s.DiscountOther / 100
	}
	return 0
}
