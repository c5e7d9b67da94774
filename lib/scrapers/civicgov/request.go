// Package civicgov speaks the undocumented search API exposed by
// self-hosted deployments of the civic records vendor platform. Every
// jurisdiction runs its own instance with a slightly different path layout
// and response envelope, so the client here stays deliberately tolerant.
package civicgov

import (
	"fmt"
	"time"
)

// Category is one of the record categories the vendor's search endpoint
// understands. Exactly one category's criteria object is populated per
// request, the rest stay null.
type Category string

const (
	CategoryPermits     Category = "permits"
	CategoryPlans       Category = "plans"
	CategoryInspections Category = "inspections"
	CategoryCodeCases   Category = "code_cases"
	CategoryLicenses    Category = "licenses"
)

func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryPermits, CategoryPlans, CategoryInspections, CategoryCodeCases, CategoryLicenses:
		return Category(s), nil
	case "":
		return CategoryPermits, nil
	}
	return "", fmt.Errorf("unknown record category %q", s)
}

// Criteria mirrors the vendor's per-category filter object. All filter
// fields are nullable; the vendor treats a null as "no filter".
type Criteria struct {
	PageNumber    int     `json:"PageNumber"`
	PageSize      int     `json:"PageSize"`
	SortBy        string  `json:"SortBy"`
	SortAscending bool    `json:"SortAscending"`
	Keyword       *string `json:"Keyword"`
	// date bounds are sent in the vendor's MM/DD/YYYY display format
	ApplyDateFrom *string `json:"ApplyDateFrom"`
	ApplyDateTo   *string `json:"ApplyDateTo"`
}

// SearchRequest is the JSON body posted to the search endpoint. One
// criteria member per record category, all but one null.
type SearchRequest struct {
	PermitCriteria     *Criteria `json:"PermitCriteria"`
	PlanCriteria       *Criteria `json:"PlanCriteria"`
	InspectionCriteria *Criteria `json:"InspectionCriteria"`
	CodeCaseCriteria   *Criteria `json:"CodeCaseCriteria"`
	LicenseCriteria    *Criteria `json:"LicenseCriteria"`
}

func NewSearchRequest(category Category, crit Criteria) SearchRequest {
	var req SearchRequest
	switch category {
	case CategoryPlans:
		req.PlanCriteria = &crit
	case CategoryInspections:
		req.InspectionCriteria = &crit
	case CategoryCodeCases:
		req.CodeCaseCriteria = &crit
	case CategoryLicenses:
		req.LicenseCriteria = &crit
	default:
		req.PermitCriteria = &crit
	}
	return req
}

const vendorDateFormat = "01/02/2006"

// KeywordCriteria builds the criteria for one page of a free-text sweep.
// An empty term queries the whole corpus.
func KeywordCriteria(term string, page, pageSize int) Criteria {
	crit := Criteria{
		PageNumber:    page,
		PageSize:      pageSize,
		SortBy:        "IssueDate",
		SortAscending: true,
	}
	if term != "" {
		crit.Keyword = &term
	}
	return crit
}

// DateRangeCriteria builds the criteria for one page of a date-interval
// sweep. Both bounds are inclusive.
func DateRangeCriteria(start, end time.Time, page, pageSize int) Criteria {
	from := start.Format(vendorDateFormat)
	to := end.Format(vendorDateFormat)
	return Criteria{
		PageNumber:    page,
		PageSize:      pageSize,
		SortBy:        "IssueDate",
		SortAscending: true,
		ApplyDateFrom: &from,
		ApplyDateTo:   &to,
	}
}
