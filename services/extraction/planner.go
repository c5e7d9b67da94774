// Package extraction orchestrates the full sweep of one jurisdiction's
// deployment: endpoint discovery, segment planning, paginated crawling,
// normalization, dedup and checkpointed persistence.
package extraction

import (
	"fmt"
	"time"

	"civicsearch-backend/lib/configuration"
)

// WorkUnit is one independently sweepable slice of a target's record
// space: either a free-text term or a closed date interval. The segment
// planner emits these in the exact order the coordinator consumes them.
type WorkUnit struct {
	Name string
	// free-text term for the lexical sweep; "" sweeps the whole corpus
	Term string
	// closed interval for the temporal sweep, both bounds inclusive
	Start time.Time
	End   time.Time
	// discriminates a temporal unit from a lexical one
	Temporal bool
}

type Granularity string

const (
	GranularityYearly    Granularity = "yearly"
	GranularityQuarterly Granularity = "quarterly"
	GranularityMonthly   Granularity = "monthly"
)

func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityYearly, GranularityQuarterly, GranularityMonthly:
		return Granularity(s), nil
	case "":
		return GranularityYearly, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

type PlanOptions struct {
	// restrict the temporal sweep to one year; 0 sweeps StartYear..now
	Year        int
	Granularity Granularity
}

// Plan emits the ordered WorkUnit sequence that jointly covers the
// target's record space without relying on unbounded pagination of any
// single query. It never executes requests.
func Plan(target configuration.Target, opts PlanOptions) []WorkUnit {
	if target.Sweep == configuration.SweepTemporal {
		startYear := target.StartYear
		if startYear == 0 {
			startYear = time.Now().Year()
		}
		endYear := time.Now().Year()
		if opts.Year != 0 {
			startYear, endYear = opts.Year, opts.Year
		}
		return TemporalUnits(startYear, endYear, opts.Granularity)
	}
	return LexicalUnits()
}

// LexicalUnits emits the fixed alphanumeric sweep: the unfiltered term
// first, then a-z, then 0-9. The coordinator short-circuits the rest when
// the unfiltered unit alone covers the corpus.
func LexicalUnits() []WorkUnit {
	units := []WorkUnit{{Name: "term:all"}}
	for c := 'a'; c <= 'z'; c++ {
		units = append(units, WorkUnit{
			Name: fmt.Sprintf("term:%c", c),
			Term: string(c),
		})
	}
	for c := '0'; c <= '9'; c++ {
		units = append(units, WorkUnit{
			Name: fmt.Sprintf("term:%c", c),
			Term: string(c),
		})
	}
	return units
}

// TemporalUnits tiles [startYear-01-01, endYear-12-31] exactly, in
// chronological order, with no gaps and no overlaps. Sub-year
// granularities exist for deployments where a single year still
// overflows the vendor's pagination cap.
func TemporalUnits(startYear, endYear int, granularity Granularity) []WorkUnit {
	var units []WorkUnit
	for year := startYear; year <= endYear; year++ {
		switch granularity {
		case GranularityQuarterly:
			for q := 0; q < 4; q++ {
				start := time.Date(year, time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
				end := start.AddDate(0, 3, 0).AddDate(0, 0, -1)
				units = append(units, WorkUnit{
					Name:     fmt.Sprintf("%d-Q%d", year, q+1),
					Start:    start,
					End:      end,
					Temporal: true,
				})
			}
		case GranularityMonthly:
			for m := time.January; m <= time.December; m++ {
				start := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
				end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
				units = append(units, WorkUnit{
					Name:     fmt.Sprintf("%d-%02d", year, m),
					Start:    start,
					End:      end,
					Temporal: true,
				})
			}
		default:
			units = append(units, WorkUnit{
				Name:     fmt.Sprintf("%d", year),
				Start:    time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
				End:      time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
				Temporal: true,
			})
		}
	}
	return units
}
