package extraction

import (
	"testing"
	"time"

	"civicsearch-backend/lib/configuration"

	"github.com/stretchr/testify/require"
)

func TestLexicalUnitsOrder(t *testing.T) {
	units := LexicalUnits()
	require.Len(t, units, 1+26+10)

	require.Equal(t, "term:all", units[0].Name)
	require.Equal(t, "", units[0].Term)
	require.False(t, units[0].Temporal)

	require.Equal(t, "term:a", units[1].Name)
	require.Equal(t, "a", units[1].Term)
	require.Equal(t, "term:z", units[26].Name)
	require.Equal(t, "term:0", units[27].Name)
	require.Equal(t, "term:9", units[36].Name)
}

// every temporal tiling must cover [startYear-01-01, endYear-12-31]
// exactly: chronological, gapless, non-overlapping
func requireExactTiling(t *testing.T, units []WorkUnit, startYear, endYear int) {
	t.Helper()
	require.NotEmpty(t, units)

	require.Equal(t, time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC), units[0].Start)
	require.Equal(t, time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC), units[len(units)-1].End)

	for i, u := range units {
		require.True(t, u.Temporal, "unit %s", u.Name)
		require.False(t, u.End.Before(u.Start), "unit %s", u.Name)
		if i > 0 {
			prev := units[i-1]
			require.Equal(t, prev.End.AddDate(0, 0, 1), u.Start,
				"gap or overlap between %s and %s", prev.Name, u.Name)
		}
	}
}

func TestTemporalUnitsYearly(t *testing.T) {
	units := TemporalUnits(2019, 2021, GranularityYearly)
	require.Len(t, units, 3)
	requireExactTiling(t, units, 2019, 2021)
	require.Equal(t, "2019", units[0].Name)
	require.Equal(t, "2021", units[2].Name)
}

func TestTemporalUnitsQuarterly(t *testing.T) {
	units := TemporalUnits(2020, 2020, GranularityQuarterly)
	require.Len(t, units, 4)
	requireExactTiling(t, units, 2020, 2020)

	require.Equal(t, "2020-Q1", units[0].Name)
	// leap year: Q1 ends on Feb having 29 days, covered by the tiling
	// check, but the quarter boundary itself is fixed
	require.Equal(t, time.Date(2020, time.March, 31, 0, 0, 0, 0, time.UTC), units[0].End)
	require.Equal(t, time.Date(2020, time.April, 1, 0, 0, 0, 0, time.UTC), units[1].Start)
	require.Equal(t, "2020-Q4", units[3].Name)
}

func TestTemporalUnitsMonthly(t *testing.T) {
	units := TemporalUnits(2023, 2024, GranularityMonthly)
	require.Len(t, units, 24)
	requireExactTiling(t, units, 2023, 2024)

	require.Equal(t, "2023-01", units[0].Name)
	require.Equal(t, time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC), units[1].End)
	// leap february
	require.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), units[13].End)
	require.Equal(t, "2024-12", units[23].Name)
}

func TestPlanLexicalTarget(t *testing.T) {
	units := Plan(configuration.Target{Sweep: configuration.SweepLexical}, PlanOptions{})
	require.Len(t, units, 37)
	require.Equal(t, "term:all", units[0].Name)
}

func TestPlanTemporalTarget(t *testing.T) {
	target := configuration.Target{Sweep: configuration.SweepTemporal, StartYear: 2020}

	units := Plan(target, PlanOptions{Granularity: GranularityYearly})
	requireExactTiling(t, units, 2020, time.Now().Year())

	// a single-year restriction overrides StartYear entirely
	units = Plan(target, PlanOptions{Year: 2022, Granularity: GranularityMonthly})
	require.Len(t, units, 12)
	requireExactTiling(t, units, 2022, 2022)
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("")
	require.NoError(t, err)
	require.Equal(t, GranularityYearly, g)

	g, err = ParseGranularity("quarterly")
	require.NoError(t, err)
	require.Equal(t, GranularityQuarterly, g)

	_, err = ParseGranularity("weekly")
	require.Error(t, err)
}
