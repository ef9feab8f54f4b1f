package batch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fortuna/diamond/internal/config"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/ingest/espn"
	"github.com/fortuna/diamond/internal/ingest/odds"
	"github.com/fortuna/diamond/internal/ingest/teamrankings"
	"github.com/fortuna/diamond/internal/teams"
)

var (
	ErrUnknownJob     = errors.New("unknown scrape job")
	ErrUnknownSubject = errors.New("unknown subject")
	ErrNoSubjects     = errors.New("no subjects to scrape")
)

// Scope says which catalog subjects a job runs over.
type Scope string

const (
	ScopeBatters  Scope = "batters"
	ScopePitchers Scope = "pitchers"
	ScopePlayers  Scope = "players"
	ScopeTeams    Scope = "teams"
	ScopeLeague   Scope = "league"
)

// Definition is one registered scrape category.
type Definition struct {
	Name   string
	Scope  Scope
	Scrape ingest.ScrapeFunc
}

// Registry maps job names to scrapers.
type Registry struct {
	defs map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: map[string]Definition{}}
}

// Register adds or replaces a job.
func (r *Registry) Register(name string, scope Scope, fn ingest.ScrapeFunc) {
	r.defs[name] = Definition{Name: name, Scope: scope, Scrape: fn}
}

// Lookup returns the named job.
func (r *Registry) Lookup(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return def, nil
}

// Names lists the registered jobs, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Sources are the scrapers the default jobs are bound to. A nil source
// leaves its jobs unregistered.
type Sources struct {
	ESPN         *espn.Ingester
	Odds         *odds.Ingester
	TeamRankings *teamrankings.Ingester
}

// DefaultRegistry registers every scrape category.
func DefaultRegistry(src Sources) *Registry {
	r := NewRegistry()
	if e := src.ESPN; e != nil {
		r.Register("player_splits", ScopeBatters, e.PlayerSplits)
		r.Register("splits_api", ScopeBatters, e.PlayerSplitsAPI)
		r.Register("bat_vs_pitch", ScopeBatters, e.BatVsPitch)
		r.Register("pitching_splits", ScopePitchers, e.PitchingSplits)
		r.Register("player_stats", ScopePlayers, e.PlayerStats)
		r.Register("gamelog", ScopePlayers, e.Gamelog)
		r.Register("player_bio", ScopePlayers, e.PlayerBio)
		r.Register("team_splits", ScopeTeams, e.TeamSplits)
		r.Register("roster", ScopeTeams, e.Roster)
		r.Register("roster_page", ScopeTeams, e.RosterPage)
		r.Register("schedule", ScopeTeams, e.Schedule)
		r.Register("news", ScopeTeams, e.News)
		r.Register("injuries", ScopeLeague, e.Injuries)
		r.Register("espn_team_stats", ScopeLeague, e.TeamStats)
		r.Register("league_news", ScopeLeague, e.LeagueNews)
	}
	if src.Odds != nil {
		r.Register("odds", ScopeLeague, src.Odds.Odds)
	}
	if tr := src.TeamRankings; tr != nil {
		r.Register("team_rankings", ScopeLeague, tr.Stats)
		r.Register("trends", ScopeTeams, tr.Trends)
	}
	return r
}

// League is the subject of league-wide jobs.
var League = ingest.Subject{Kind: ingest.KindLeague, Name: "MLB"}

// Subjects lists the catalog subjects in scope, in catalog order.
func Subjects(scope Scope, cat config.Catalog) []ingest.Subject {
	var out []ingest.Subject
	switch scope {
	case ScopeLeague:
		out = append(out, League)
	case ScopeTeams:
		for _, abbr := range cat.Teams {
			if s, ok := TeamSubject(abbr); ok {
				out = append(out, s)
			}
		}
	default:
		for _, p := range cat.Players {
			if scope == ScopeBatters && p.Role == "pitcher" {
				continue
			}
			if scope == ScopePitchers && p.Role != "pitcher" {
				continue
			}
			out = append(out, PlayerSubject(p))
		}
	}
	return out
}

// PlayerSubject converts a catalog player.
func PlayerSubject(p config.Player) ingest.Subject {
	return ingest.Subject{Kind: ingest.KindPlayer, ID: p.ID, Name: p.Name, Team: p.Team, Role: p.Role}
}

// TeamSubject builds the subject for a team abbreviation. The subject
// name is the club's full name, which roster writes are keyed by.
func TeamSubject(abbr string) (ingest.Subject, bool) {
	t, ok := teams.ByAbbr(abbr)
	if !ok {
		return ingest.Subject{}, false
	}
	return ingest.Subject{Kind: ingest.KindTeam, ID: t.Abbr, Name: t.Name, Team: t.Abbr}, true
}

// Select narrows the job's catalog subjects to those named in filter, by
// id, name or team abbreviation. An empty filter selects all of them.
func (r *Registry) Select(name string, cat config.Catalog, filter []string) (Definition, []ingest.Subject, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return def, nil, err
	}
	all := Subjects(def.Scope, cat)
	if len(filter) == 0 {
		if len(all) == 0 {
			return def, nil, fmt.Errorf("%w for %s", ErrNoSubjects, name)
		}
		return def, all, nil
	}

	var out []ingest.Subject
	for _, want := range filter {
		s, ok := match(all, want)
		if !ok {
			return def, nil, fmt.Errorf("%w %q for %s", ErrUnknownSubject, want, name)
		}
		out = append(out, s)
	}
	return def, out, nil
}

func match(subjects []ingest.Subject, want string) (ingest.Subject, bool) {
	want = strings.TrimSpace(want)
	for _, s := range subjects {
		if strings.EqualFold(s.ID, want) || strings.EqualFold(s.Name, want) {
			return s, true
		}
	}
	if t, ok := teams.Resolve(want); ok {
		for _, s := range subjects {
			if s.Kind == ingest.KindTeam && s.Team == t.Abbr {
				return s, true
			}
		}
	}
	return ingest.Subject{}, false
}
