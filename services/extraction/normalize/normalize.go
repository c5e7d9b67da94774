package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mazen160/go-random"
)

// Normalize maps one opaque vendor record into the canonical schema.
// Unresolvable fields default to empty, never an error: a sweep must not
// die on one deployment's creative field naming.
func Normalize(raw json.RawMessage, tc TargetContext) Record {
	rec := Record{
		Category: tc.Category,
		Provenance: Provenance{
			TargetId:    tc.TargetId,
			RetrievedAt: tc.RetrievedAt,
		},
		Raw: append(json.RawMessage(nil), raw...),
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		rec.Identifier, rec.SyntheticId = randomIdentifier(tc)
		return rec
	}

	rec.Address = resolveAddress(fields)
	rec.Classification = Classification{
		Type:      firstString(fields, typeAliases),
		Status:    CanonicalStatus(firstString(fields, statusAliases)),
		WorkClass: firstString(fields, workClassAliases),
	}
	rec.Dates = Dates{
		Applied: firstDate(fields, appliedDateAliases),
		Issued:  firstDate(fields, issuedDateAliases),
		Expires: firstDate(fields, expiresDateAliases),
		Finaled: firstDate(fields, finaledDateAliases),
	}
	rec.Valuation = firstNumber(fields, valuationAliases)
	rec.SquareFeet = firstNumber(fields, squareFeetAliases)
	rec.Description = firstString(fields, descriptionAliases)

	rec.Identifier = firstString(fields, identifierAliases)
	if rec.Identifier == "" {
		rec.Identifier, rec.SyntheticId = syntheticIdentifier(rec, tc)
	}
	return rec
}

// syntheticIdentifier fills in for records with no strong identifier.
// When stable fields exist, the id is a deterministic hash of them so the
// same physical record dedupes across runs. Only a record with nothing
// stable at all falls back to randomness.
func syntheticIdentifier(rec Record, tc TargetContext) (string, bool) {
	var parts []string
	if rec.Address.Line != "" {
		parts = append(parts, rec.Address.Line, rec.Address.Zip)
	}
	if rec.Dates.Applied != nil {
		parts = append(parts, rec.Dates.Applied.Format("2006-01-02"))
	} else if rec.Dates.Issued != nil {
		parts = append(parts, rec.Dates.Issued.Format("2006-01-02"))
	}
	if rec.Classification.Type != "" {
		parts = append(parts, rec.Classification.Type)
	}

	if len(parts) >= 2 {
		sum := sha256.Sum256([]byte(tc.TargetId + "|" + strings.Join(parts, "|")))
		return "synth-" + hex.EncodeToString(sum[:6]), true
	}
	return randomIdentifier(tc)
}

func randomIdentifier(tc TargetContext) (string, bool) {
	suffix, err := random.String(8)
	if err != nil {
		suffix = "00000000"
	}
	return fmt.Sprintf("synth-%d-%s", tc.RetrievedAt.UnixMilli(), suffix), true
}
