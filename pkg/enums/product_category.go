package enums

import "fmt"

// ProductCategory maps to the category enum in Postgres.
type ProductCategory string

const (
	CategoryElectronics ProductCategory = "electronics"
	CategoryFashion     ProductCategory = "fashion"
	CategoryHome        ProductCategory = "home"
	CategoryBeauty      ProductCategory = "beauty"
	CategorySports      ProductCategory = "sports"
	CategoryToys        ProductCategory = "toys"
	CategoryBooks       ProductCategory = "books"
	CategoryGrocery     ProductCategory = "grocery"
	CategoryOther       ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	CategoryElectronics,
	CategoryFashion,
	CategoryHome,
	CategoryBeauty,
	CategorySports,
	CategoryToys,
	CategoryBooks,
	CategoryGrocery,
	CategoryOther,
}

// String implements fmt.Stringer.
func (p ProductCategory) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductCategory.
func (p ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
