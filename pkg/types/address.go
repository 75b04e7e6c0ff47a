package types

import "strings"

// Address is a flattened postal address embedded on orders.
type Address struct {
	Line1      string  `gorm:"column:line1" json:"line1"`
	Line2      *string `gorm:"column:line2" json:"line2,omitempty"`
	City       string  `gorm:"column:city" json:"city"`
	State      string  `gorm:"column:state" json:"state"`
	PostalCode string  `gorm:"column:postal_code" json:"postal_code"`
	Country    string  `gorm:"column:country" json:"country"`
}

// IsZero reports whether no address fields are populated.
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.Line1) == "" &&
		a.Line2 == nil &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.State) == "" &&
		strings.TrimSpace(a.PostalCode) == "" &&
		strings.TrimSpace(a.Country) == ""
}

// Normalized returns the address with whitespace trimmed and a defaulted country.
func (a Address) Normalized() Address {
	out := Address{
		Line1:      strings.TrimSpace(a.Line1),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
	if a.Line2 != nil {
		trimmed := strings.TrimSpace(*a.Line2)
		if trimmed != "" {
			out.Line2 = &trimmed
		}
	}
	if out.Country == "" && !out.IsZero() {
		out.Country = "US"
	}
	return out
}
