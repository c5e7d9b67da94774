package normalize

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// CanonicalStatuses is the vendor-agnostic status vocabulary. Vendor
// spellings vary wildly ("FINALED", "Finaled ", "Finalized"), so matching
// falls back to string similarity.
var CanonicalStatuses = []string{
	"Applied",
	"In Review",
	"Approved",
	"Issued",
	"Active",
	"Expired",
	"Finaled",
	"Closed",
	"Denied",
	"Withdrawn",
	"Revoked",
}

const statusSimilarityFloor = 0.88

// CanonicalStatus maps a raw vendor status onto the canonical vocabulary.
// Unrecognized statuses pass through untouched so no information is lost.
func CanonicalStatus(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	for _, canonical := range CanonicalStatuses {
		if strings.EqualFold(trimmed, canonical) {
			return canonical
		}
	}

	best := ""
	var bestScore float64
	for _, canonical := range CanonicalStatuses {
		score := matchr.JaroWinkler(strings.ToLower(trimmed), strings.ToLower(canonical), false)
		if score > bestScore {
			bestScore = score
			best = canonical
		}
	}
	if bestScore >= statusSimilarityFloor {
		return best
	}
	return trimmed
}
