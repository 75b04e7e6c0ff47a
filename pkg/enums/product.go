package enums

import "fmt"

// ProductType distinguishes single-SKU products from products sold via variants.
type ProductType string

const (
	ProductTypeSimple   ProductType = "simple"
	ProductTypeVariable ProductType = "variable"
)

var validProductTypes = []ProductType{
	ProductTypeSimple,
	ProductTypeVariable,
}

// String implements fmt.Stringer.
func (p ProductType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductType.
func (p ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}

// StockManagementType selects how stock is counted for a product.
type StockManagementType string

const (
	StockManagementQuantity StockManagementType = "quantity"
	StockManagementWeight   StockManagementType = "weight"
)

var validStockManagementTypes = []StockManagementType{
	StockManagementQuantity,
	StockManagementWeight,
}

// String implements fmt.Stringer.
func (s StockManagementType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockManagementType.
func (s StockManagementType) IsValid() bool {
	for _, candidate := range validStockManagementTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsWeightBased reports whether stock for the product is tracked in grams.
func (s StockManagementType) IsWeightBased() bool {
	return s == StockManagementWeight
}

// ParseStockManagementType converts raw input into a StockManagementType.
func ParseStockManagementType(value string) (StockManagementType, error) {
	for _, candidate := range validStockManagementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock management type %q", value)
}

// WeightUnit enumerates the units accepted for weight-based stock input.
type WeightUnit string

const (
	WeightUnitGram     WeightUnit = "g"
	WeightUnitKilogram WeightUnit = "kg"
	WeightUnitOunce    WeightUnit = "oz"
	WeightUnitPound    WeightUnit = "lb"
)

var validWeightUnits = []WeightUnit{
	WeightUnitGram,
	WeightUnitKilogram,
	WeightUnitOunce,
	WeightUnitPound,
}

// String implements fmt.Stringer.
func (u WeightUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known WeightUnit.
func (u WeightUnit) IsValid() bool {
	for _, candidate := range validWeightUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseWeightUnit converts raw input into a WeightUnit.
func ParseWeightUnit(value string) (WeightUnit, error) {
	for _, candidate := range validWeightUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid weight unit %q", value)
}
