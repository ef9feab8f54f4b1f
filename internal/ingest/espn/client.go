package espn

import (
	"fmt"
	"strings"
)

const (
	WebBase     = "https://www.espn.com"
	APIBase     = "https://site.web.api.espn.com/apis/common/v3/sports/baseball/mlb"
	SiteAPIBase = "https://site.api.espn.com/apis/site/v2/sports/baseball/mlb"
)

// URLs builds ESPN page and API addresses. Empty bases fall back to the
// public hosts, which lets tests point every category at one server.
type URLs struct {
	Web     string
	API     string
	SiteAPI string
}

func (u URLs) withDefaults() URLs {
	if u.Web == "" {
		u.Web = WebBase
	}
	if u.API == "" {
		u.API = APIBase
	}
	if u.SiteAPI == "" {
		u.SiteAPI = SiteAPIBase
	}
	return u
}

func (u URLs) PlayerSplits(id, slug string) string {
	return fmt.Sprintf("%s/mlb/player/splits/_/id/%s/%s", u.Web, id, slug)
}

func (u URLs) BatVsPitch(id string, teamID int) string {
	return fmt.Sprintf("%s/mlb/player/batvspitch/_/id/%s/teamId/%d", u.Web, id, teamID)
}

func (u URLs) PlayerStats(id, slug string) string {
	return fmt.Sprintf("%s/mlb/player/stats/_/id/%s/%s", u.Web, id, slug)
}

func (u URLs) TeamSplits(abbr string) string {
	return fmt.Sprintf("%s/mlb/team/splits/_/name/%s", u.Web, strings.ToLower(abbr))
}

func (u URLs) TeamRoster(abbr string) string {
	return fmt.Sprintf("%s/mlb/team/roster/_/name/%s", u.Web, strings.ToLower(abbr))
}

func (u URLs) TeamSchedule(abbr string) string {
	return fmt.Sprintf("%s/mlb/team/schedule/_/name/%s", u.Web, strings.ToLower(abbr))
}

func (u URLs) TeamNews(abbr string) string {
	return fmt.Sprintf("%s/mlb/team/_/name/%s", u.Web, strings.ToLower(abbr))
}

func (u URLs) Injuries() string {
	return u.Web + "/mlb/injuries"
}

func (u URLs) LeagueNews() string {
	return u.Web + "/mlb/news"
}

// TeamStats is the league team leaderboard for a view. Batting is the
// page's default view and carries no view segment.
func (u URLs) TeamStats(view string, season int) string {
	if view == "" || view == "batting" {
		return fmt.Sprintf("%s/mlb/stats/team/_/season/%d/seasontype/2", u.Web, season)
	}
	return fmt.Sprintf("%s/mlb/stats/team/_/view/%s/season/%d/seasontype/2", u.Web, view, season)
}

// SplitsAPI is the athlete splits endpoint.
func (u URLs) SplitsAPI(id string, season int) string {
	return fmt.Sprintf("%s/athletes/%s/splits?season=%d", u.API, id, season)
}

// GamelogAPI is the athlete gamelog endpoint.
func (u URLs) GamelogAPI(id string, season int) string {
	return fmt.Sprintf("%s/athletes/%s/gamelog?season=%d", u.API, id, season)
}

// AthleteAPI is the athlete biography endpoint.
func (u URLs) AthleteAPI(id string) string {
	return fmt.Sprintf("%s/athletes/%s", u.SiteAPI, id)
}

// RosterAPI is the team roster endpoint, keyed by ESPN team id (1..30).
func (u URLs) RosterAPI(teamID int) string {
	return fmt.Sprintf("%s/teams/%d/roster", u.SiteAPI, teamID)
}
