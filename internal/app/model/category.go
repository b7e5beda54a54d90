package model

import (
	"fmt"
	"strings"
)

// Category is the single content-type label assigned to a Request.
type Category string

const (
	CategoryCompany    Category = "company"
	CategoryTechnology Category = "technology"
	CategoryTips       Category = "tips"
	CategoryGeneral    Category = "general"
)

// Categories lists every valid category in classification prompt order.
var Categories = []Category{CategoryCompany, CategoryTechnology, CategoryTips, CategoryGeneral}

// SummaryType is the discriminant carried in a StructuredSummary's "type" field.
type SummaryType string

const (
	TypeCompanies  SummaryType = "companies"
	TypeTechnology SummaryType = "technology"
	TypeTips       SummaryType = "tips"
	TypeGeneral    SummaryType = "general"
)

// SummaryType maps a category to the tag its summary must carry.
func (c Category) SummaryType() SummaryType {
	switch c {
	case CategoryCompany:
		return TypeCompanies
	case CategoryTechnology:
		return TypeTechnology
	case CategoryTips:
		return TypeTips
	default:
		return TypeGeneral
	}
}

// Valid reports whether c is one of the four categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCompany, CategoryTechnology, CategoryTips, CategoryGeneral:
		return true
	}
	return false
}

// ParseCategory accepts a category name or a summary type tag, ignoring case
// and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "company", "companies":
		return CategoryCompany, nil
	case "technology":
		return CategoryTechnology, nil
	case "tips":
		return CategoryTips, nil
	case "general":
		return CategoryGeneral, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}
