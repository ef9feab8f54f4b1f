package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Catalog lists the subjects the batch runner and scheduler scrape.
type Catalog struct {
	Season  int                     `yaml:"season"`
	Players []Player                `yaml:"players"`
	Teams   []string                `yaml:"teams"`
	Jobs    []string                `yaml:"jobs"`
	Sources map[string]SourcePolicy `yaml:"sources"`
}

// Player is one scraped subject.
type Player struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Team string `yaml:"team"`
	// Role is "batter" or "pitcher".
	Role string `yaml:"role"`
}

// DefaultJobs are refreshed when the catalog does not name any.
var DefaultJobs = []string{
	"player_splits", "bat_vs_pitch", "player_stats", "pitching_splits",
	"team_splits", "roster", "odds", "team_rankings",
}

var allTeams = []string{
	"ARI", "ATL", "BAL", "BOS", "CHC", "CHW", "CIN", "CLE", "COL", "DET",
	"HOU", "KC", "LAA", "LAD", "MIA", "MIL", "MIN", "NYM", "NYY", "ATH",
	"PHI", "PIT", "SD", "SF", "SEA", "STL", "TB", "TEX", "TOR", "WSH",
}

func defaultCatalog(season int) Catalog {
	return Catalog{
		Season:  season,
		Teams:   append([]string(nil), allTeams...),
		Jobs:    append([]string(nil), DefaultJobs...),
		Sources: map[string]SourcePolicy{},
	}
}

// LoadCatalog reads the YAML catalog at path and fills unset fields from
// the defaults. A missing file yields the defaults.
func LoadCatalog(path string, season int) (*Catalog, error) {
	var cat Catalog
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
		}
	}

	if err := mergo.Merge(&cat, defaultCatalog(season)); err != nil {
		return nil, fmt.Errorf("merging catalog defaults: %w", err)
	}
	for i, p := range cat.Players {
		if p.Role == "" {
			cat.Players[i].Role = "batter"
		}
	}
	return &cat, nil
}
