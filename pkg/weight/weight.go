package weight

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shopfronthq/shopfront-backend/pkg/enums"
)

var (
	gramsPerKilogram = decimal.NewFromInt(1000)
	gramsPerOunce    = decimal.RequireFromString("28.3495")
	gramsPerPound    = decimal.RequireFromString("453.592")
)

// ToGrams converts a weight expressed in the given unit to grams. All stock
// math runs on grams; conversion happens once at the boundary.
func ToGrams(value decimal.Decimal, unit enums.WeightUnit) (decimal.Decimal, error) {
	switch unit {
	case enums.WeightUnitGram:
		return value, nil
	case enums.WeightUnitKilogram:
		return value.Mul(gramsPerKilogram), nil
	case enums.WeightUnitOunce:
		return value.Mul(gramsPerOunce), nil
	case enums.WeightUnitPound:
		return value.Mul(gramsPerPound), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported weight unit %q", unit)
	}
}

// FromGrams converts grams into the given display unit.
func FromGrams(grams decimal.Decimal, unit enums.WeightUnit) (decimal.Decimal, error) {
	switch unit {
	case enums.WeightUnitGram:
		return grams, nil
	case enums.WeightUnitKilogram:
		return grams.Div(gramsPerKilogram), nil
	case enums.WeightUnitOunce:
		return grams.Div(gramsPerOunce), nil
	case enums.WeightUnitPound:
		return grams.Div(gramsPerPound), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported weight unit %q", unit)
	}
}
