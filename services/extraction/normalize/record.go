// Package normalize maps heterogeneous vendor record shapes into one
// stable canonical schema. Everything here is pure: no I/O, no clock
// reads beyond what the caller passes in.
package normalize

import (
	"encoding/json"
	"time"
)

// Address is the canonical location of a record. Fields stay empty when
// the vendor shape carried nothing usable.
type Address struct {
	Line  string `json:"line,omitempty"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
	Zip   string `json:"zip,omitempty"`
}

type Classification struct {
	Type      string `json:"type,omitempty"`
	Status    string `json:"status,omitempty"`
	WorkClass string `json:"work_class,omitempty"`
}

type Dates struct {
	Applied *time.Time `json:"applied,omitempty"`
	Issued  *time.Time `json:"issued,omitempty"`
	Expires *time.Time `json:"expires,omitempty"`
	Finaled *time.Time `json:"finaled,omitempty"`
}

type Provenance struct {
	TargetId    string    `json:"target_id"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// Record is the canonical output unit, one per accepted raw record.
// Immutable after creation. The raw vendor object is always preserved
// verbatim for audit.
type Record struct {
	Identifier string `json:"identifier"`
	// true when no strong identifier existed and one was synthesized;
	// dedup across runs is weaker for these
	SyntheticId    bool           `json:"synthetic_id,omitempty"`
	Category       string         `json:"category"`
	Address        Address        `json:"address"`
	Classification Classification `json:"classification"`
	Dates          Dates          `json:"dates"`
	// nil means unset, never zero: absent and zero valuations must not
	// read as genuine $0 records
	Valuation  *float64 `json:"valuation,omitempty"`
	SquareFeet *float64 `json:"square_feet,omitempty"`
	Description string  `json:"description,omitempty"`

	Provenance Provenance      `json:"provenance"`
	Raw        json.RawMessage `json:"raw"`
}

// TargetContext carries the per-target facts the normalizer needs.
type TargetContext struct {
	TargetId    string
	Category    string
	RetrievedAt time.Time
}
