package model

// NotSpecified fills optional company fields the provider left out.
const NotSpecified = "Not specified"

// CompanySummary is one entry of the company variant.
type CompanySummary struct {
	CompanyName string `json:"company_name" validate:"required"`
	Location    string `json:"location"`
	Industry    string `json:"industry"`
	Funding     string `json:"funding"`
	Notes       string `json:"notes" validate:"required"`
}

// StructuredSummary is the tagged union of the four summary shapes. Type is
// the discriminant; the collections that do not belong to the active variant
// are always present and empty.
type StructuredSummary struct {
	Type      SummaryType      `json:"type"`
	Title     string           `json:"title,omitempty"`
	Summary   string           `json:"summary,omitempty"`
	Tags      []string         `json:"tags"`
	Summaries []CompanySummary `json:"summaries"`
	Companies []string         `json:"companies"`
}

// Category returns the category whose summarizer produces this shape.
func (s *StructuredSummary) Category() Category {
	switch s.Type {
	case TypeCompanies:
		return CategoryCompany
	case TypeTechnology:
		return CategoryTechnology
	case TypeTips:
		return CategoryTips
	default:
		return CategoryGeneral
	}
}

// IsCompany reports whether the company variant is populated.
func (s *StructuredSummary) IsCompany() bool {
	return s.Type == TypeCompanies
}

// IsEmpty reports the company variant with no companies found.
func (s *StructuredSummary) IsEmpty() bool {
	return s.IsCompany() && len(s.Summaries) == 0 && len(s.Companies) == 0
}

// Normalize replaces nil collections with empty ones so the inactive
// collections serialize as [].
func (s *StructuredSummary) Normalize() {
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.Summaries == nil {
		s.Summaries = []CompanySummary{}
	}
	if s.Companies == nil {
		s.Companies = []string{}
	}
}
