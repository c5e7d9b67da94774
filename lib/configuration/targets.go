package configuration

import (
	"fmt"
	"strings"
)

// SweepStrategy selects how a target's record space is partitioned when raw
// pagination hits the vendor's hard page cap.
type SweepStrategy string

const (
	// one work unit per alphanumeric search term
	SweepLexical SweepStrategy = "lexical"
	// one work unit per calendar year (or quarter/month)
	SweepTemporal SweepStrategy = "temporal"
)

// Target is one jurisdiction's deployment of the vendor platform.
// Immutable for the duration of a run.
type Target struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	BaseUrl   string `json:"base_url"`
	ApiPrefix string `json:"api_prefix"`
	// the search endpoint path if already known, otherwise the prober
	// discovers one at run start
	SearchPath string `json:"search_path"`
	// record category to sweep: permits, plans, inspections, code_cases,
	// licenses. defaults to permits.
	Category string        `json:"category"`
	PageSize int           `json:"page_size"`
	Sweep    SweepStrategy `json:"sweep"`
	// first year with records, used by the temporal sweep
	StartYear int  `json:"start_year"`
	Enabled   bool `json:"enabled"`
}

type EngineConfig struct {
	// directory for output + checkpoint files
	OutputDir string `json:"output_dir"`
	// seconds to wait between targets
	TargetDelaySeconds int `json:"target_delay_seconds"`
	// sqlite/libsql run history, optional
	RunDatabase RunDatabaseConfig `json:"run_database"`
}

type RunDatabaseConfig struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// Catalogue is the static per-jurisdiction configuration, read from
// targets.json5 at startup.
type Catalogue struct {
	Targets []Target     `json:"targets"`
	Proxies []string     `json:"proxies"`
	Engine  EngineConfig `json:"engine"`
}

func LoadCatalogue(path string) (Catalogue, error) {
	cat, err := ReadConfig[Catalogue](path)
	if err != nil {
		return Catalogue{}, err
	}
	if err := cat.Validate(); err != nil {
		return Catalogue{}, err
	}
	return cat, nil
}

func (c Catalogue) Validate() error {
	seen := map[string]bool{}
	for _, t := range c.Targets {
		if t.Id == "" {
			return fmt.Errorf("target with empty id (name: %q)", t.Name)
		}
		if seen[t.Id] {
			return fmt.Errorf("duplicate target id: %q", t.Id)
		}
		seen[t.Id] = true

		if !strings.HasPrefix(t.BaseUrl, "http://") && !strings.HasPrefix(t.BaseUrl, "https://") {
			return fmt.Errorf("target %q: base_url must be http(s), got %q", t.Id, t.BaseUrl)
		}
		switch t.Sweep {
		case SweepLexical, SweepTemporal, "":
		default:
			return fmt.Errorf("target %q: unknown sweep strategy %q", t.Id, t.Sweep)
		}
	}
	return nil
}

// Lookup returns the target with the given id, or false when the id is not
// present in the catalogue.
func (c Catalogue) Lookup(id string) (Target, bool) {
	for _, t := range c.Targets {
		if t.Id == id {
			return t, true
		}
	}
	return Target{}, false
}

// Endpoint joins the api prefix and a search path into the request path
// issued against the target's base url.
func (t Target) Endpoint(searchPath string) string {
	prefix := strings.TrimSuffix(t.ApiPrefix, "/")
	if !strings.HasPrefix(searchPath, "/") {
		searchPath = "/" + searchPath
	}
	return prefix + searchPath
}
