package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Per-canonical-field alias tables. Order matters: the first present,
// non-empty alias wins, so explicit vendor names sit above generic ones.
// Keeping these as plain data makes each table testable on its own,
// independent of any one deployment's shape.

var identifierAliases = []string{
	"PermitNumber",
	"permitNumber",
	"CaseNumber",
	"caseNumber",
	"PlanNumber",
	"LicenseNumber",
	"RecordNumber",
	"PermitNum",
	"Number",
	"PermitId",
	"CaseId",
	"EntityId",
	"Id",
	"id",
}

var typeAliases = []string{
	"PermitTypeName",
	"PermitType",
	"CaseTypeName",
	"CaseType",
	"TypeName",
	"RecordType",
	"Type",
	"type",
}

var statusAliases = []string{
	"PermitStatusName",
	"PermitStatus",
	"CaseStatus",
	"StatusName",
	"Status",
	"status",
}

var workClassAliases = []string{
	"PermitWorkclassName",
	"PermitWorkclass",
	"WorkClassName",
	"WorkClass",
	"Workclass",
}

var descriptionAliases = []string{
	"ProjectName",
	"Description",
	"description",
	"WorkDescription",
	"Notes",
}

var appliedDateAliases = []string{
	"ApplyDate",
	"ApplicationDate",
	"AppliedDate",
	"DateApplied",
	"CreatedDate",
}

var issuedDateAliases = []string{
	"IssueDate",
	"IssuedDate",
	"DateIssued",
	"issueDate",
}

var expiresDateAliases = []string{
	"ExpireDate",
	"ExpirationDate",
	"ExpiresDate",
	"DateExpires",
}

var finaledDateAliases = []string{
	"FinalDate",
	"FinaledDate",
	"CompletedDate",
	"CloseDate",
	"ClosedDate",
}

var valuationAliases = []string{
	"Valuation",
	"EstProjectCost",
	"ProjectCost",
	"JobValue",
	"valuation",
}

var squareFeetAliases = []string{
	"SquareFootage",
	"SquareFeet",
	"TotalSqFt",
	"Sqft",
}

// firstString walks the alias table and returns the first present,
// non-empty value coerced to a string.
func firstString(raw map[string]any, aliases []string) string {
	for _, alias := range aliases {
		v, ok := raw[alias]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			trimmed := strings.TrimSpace(val)
			if trimmed != "" {
				return trimmed
			}
		case float64:
			// vendor ids sometimes arrive as bare numbers
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return ""
}

// firstNumber resolves a numeric field. Zero, absent and non-numeric
// input all come back nil: a permit with no valuation is not a $0 permit.
func firstNumber(raw map[string]any, aliases []string) *float64 {
	for _, alias := range aliases {
		v, ok := raw[alias]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			if val != 0 {
				out := val
				return &out
			}
		case string:
			cleaned := strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(val, "$"), ",", ""))
			parsed, err := strconv.ParseFloat(cleaned, 64)
			if err == nil && parsed != 0 {
				return &parsed
			}
		}
	}
	return nil
}

// firstDate resolves a date field, tolerating whatever format this
// deployment emits. Unparseable input resolves to nil, never an error.
func firstDate(raw map[string]any, aliases []string) *time.Time {
	str := firstString(raw, aliases)
	if str == "" {
		return nil
	}
	t, err := dateparse.ParseAny(str)
	if err != nil {
		return nil
	}
	return &t
}
