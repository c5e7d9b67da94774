package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCatalogue = `{
	// jurisdictions under active extraction
	targets: [
		{
			id: "springfield",
			name: "Springfield, IL",
			base_url: "https://permits.springfield.example.gov",
			category: "permits",
			page_size: 100,
			sweep: "lexical",
			enabled: true,
		},
		{
			id: "shelbyville",
			name: "Shelbyville, IL",
			base_url: "https://shelbyville.example.gov",
			api_prefix: "/selfservice",
			sweep: "temporal",
			start_year: 2015,
			enabled: false,
		},
	],
	proxies: ["http://10.0.0.1:8080"],
	engine: {
		output_dir: "out",
		target_delay_seconds: 5,
	},
}`

func writeCatalogue(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.json5")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadCatalogue(t *testing.T) {
	cat, err := LoadCatalogue(writeCatalogue(t, testCatalogue))
	require.NoError(t, err)
	require.Len(t, cat.Targets, 2)
	require.Equal(t, []string{"http://10.0.0.1:8080"}, cat.Proxies)
	require.Equal(t, "out", cat.Engine.OutputDir)

	target, ok := cat.Lookup("shelbyville")
	require.True(t, ok)
	require.Equal(t, SweepTemporal, target.Sweep)
	require.Equal(t, 2015, target.StartYear)
	require.False(t, target.Enabled)

	_, ok = cat.Lookup("ogdenville")
	require.False(t, ok)
}

func TestLoadCatalogueMergesLocalOverrides(t *testing.T) {
	path := writeCatalogue(t, testCatalogue)
	local := filepath.Join(filepath.Dir(path), "targets.local.json5")
	require.NoError(t, os.WriteFile(local, []byte(`{
		engine: {output_dir: "/var/lib/civicsearch"},
	}`), 0644))

	cat, err := LoadCatalogue(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/civicsearch", cat.Engine.OutputDir)
	// untouched keys survive the merge
	require.Len(t, cat.Targets, 2)
}

func TestValidateRejectsBadCatalogues(t *testing.T) {
	base := func() Catalogue {
		return Catalogue{Targets: []Target{
			{Id: "springfield", BaseUrl: "https://example.gov"},
		}}
	}

	cat := base()
	require.NoError(t, cat.Validate())

	cat = base()
	cat.Targets[0].Id = ""
	require.Error(t, cat.Validate())

	cat = base()
	cat.Targets = append(cat.Targets, cat.Targets[0])
	require.Error(t, cat.Validate())

	cat = base()
	cat.Targets[0].BaseUrl = "ftp://example.gov"
	require.Error(t, cat.Validate())

	cat = base()
	cat.Targets[0].Sweep = "alphabetical"
	require.Error(t, cat.Validate())
}

func TestEndpointJoinsPrefixAndPath(t *testing.T) {
	target := Target{ApiPrefix: "/selfservice/"}
	require.Equal(t, "/selfservice/api/search/search", target.Endpoint("/api/search/search"))
	require.Equal(t, "/selfservice/api/search/search", target.Endpoint("api/search/search"))

	target.ApiPrefix = ""
	require.Equal(t, "/api/search/search", target.Endpoint("/api/search/search"))
}
