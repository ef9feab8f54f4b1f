// Package teams is the MLB team catalog shared by the ESPN, odds and
// injuries scrapers.
package teams

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Team is one MLB club as ESPN identifies it.
type Team struct {
	Abbr   string
	ESPNID int
	Name   string
	Slug   string
}

var all = []Team{
	{"ARI", 29, "Arizona Diamondbacks", "arizona-diamondbacks"},
	{"ATL", 15, "Atlanta Braves", "atlanta-braves"},
	{"BAL", 1, "Baltimore Orioles", "baltimore-orioles"},
	{"BOS", 2, "Boston Red Sox", "boston-red-sox"},
	{"CHC", 16, "Chicago Cubs", "chicago-cubs"},
	{"CHW", 4, "Chicago White Sox", "chicago-white-sox"},
	{"CIN", 17, "Cincinnati Reds", "cincinnati-reds"},
	{"CLE", 5, "Cleveland Guardians", "cleveland-guardians"},
	{"COL", 27, "Colorado Rockies", "colorado-rockies"},
	{"DET", 6, "Detroit Tigers", "detroit-tigers"},
	{"HOU", 18, "Houston Astros", "houston-astros"},
	{"KC", 7, "Kansas City Royals", "kansas-city-royals"},
	{"LAA", 3, "Los Angeles Angels", "los-angeles-angels"},
	{"LAD", 19, "Los Angeles Dodgers", "los-angeles-dodgers"},
	{"MIA", 28, "Miami Marlins", "miami-marlins"},
	{"MIL", 8, "Milwaukee Brewers", "milwaukee-brewers"},
	{"MIN", 9, "Minnesota Twins", "minnesota-twins"},
	{"NYM", 21, "New York Mets", "new-york-mets"},
	{"NYY", 10, "New York Yankees", "new-york-yankees"},
	{"ATH", 11, "Athletics", "athletics"},
	{"PHI", 22, "Philadelphia Phillies", "philadelphia-phillies"},
	{"PIT", 23, "Pittsburgh Pirates", "pittsburgh-pirates"},
	{"SD", 25, "San Diego Padres", "san-diego-padres"},
	{"SF", 26, "San Francisco Giants", "san-francisco-giants"},
	{"SEA", 12, "Seattle Mariners", "seattle-mariners"},
	{"STL", 24, "St. Louis Cardinals", "st-louis-cardinals"},
	{"TB", 30, "Tampa Bay Rays", "tampa-bay-rays"},
	{"TEX", 13, "Texas Rangers", "texas-rangers"},
	{"TOR", 14, "Toronto Blue Jays", "toronto-blue-jays"},
	{"WSH", 20, "Washington Nationals", "washington-nationals"},
}

// aliases maps alternate abbreviations and nicknames seen across sources.
var aliases = map[string]string{
	"CWS":                           "CHW",
	"OAK":                           "ATH",
	"WAS":                           "WSH",
	"A'S":                           "ATH",
	"OAKLAND":                       "ATH",
	"D-BACKS":                       "ARI",
	"DBACKS":                        "ARI",
	"OAKLAND ATHLETICS":             "ATH",
	"LOS ANGELES ANGELS OF ANAHEIM": "LAA",
	"CLEVELAND INDIANS":             "CLE",
}

// OpponentLabels are the split-page "vs." rows, in ESPN's order.
var OpponentLabels = []string{
	"vs. ARI", "vs. ATL", "vs. BAL", "vs. BOS", "vs. CHC", "vs. CIN", "vs. CLE", "vs. COL", "vs. CWS", "vs. DET",
	"vs. HOU", "vs. KC", "vs. LAA", "vs. LAD", "vs. MIA", "vs. MIL", "vs. MIN", "vs. NYM", "vs. NYY", "vs. OAK",
	"vs. PHI", "vs. PIT", "vs. SD", "vs. SEA", "vs. SF", "vs. STL", "vs. TB", "vs. TEX", "vs. TOR", "vs. WSH",
}

// Stadiums are the split-page ballpark rows.
var Stadiums = []string{
	"American Family Field", "Angel Stadium", "Busch Stadium", "Chase Field", "Citi Field", "Citizens Bank Park",
	"Comerica Park", "Coors Field", "Dodger Stadium", "Fenway Park", "Globe Life Field", "Great American Ball Park",
	"Guaranteed Rate Field", "Kauffman Stadium", "LoanDepot Park", "Minute Maid Park", "Nationals Park", "Oracle Park",
	"PETCO Park", "PNC Park", "Progressive Field", "Rogers Centre", "T-Mobile Park", "Target Field", "Tropicana Field",
	"Truist Park", "Wrigley Field", "Yankee Stadium",
}

// All returns the 30 clubs.
func All() []Team {
	out := make([]Team, len(all))
	copy(out, all)
	return out
}

// ByAbbr finds a team by abbreviation, accepting known aliases.
func ByAbbr(abbr string) (Team, bool) {
	key := strings.ToUpper(strings.TrimSpace(abbr))
	if canon, ok := aliases[key]; ok {
		key = canon
	}
	for _, t := range all {
		if t.Abbr == key {
			return t, true
		}
	}
	return Team{}, false
}

// ByESPNID finds a team by ESPN's numeric id.
func ByESPNID(id int) (Team, bool) {
	for _, t := range all {
		if t.ESPNID == id {
			return t, true
		}
	}
	return Team{}, false
}

// BySlug finds a team by URL slug ("chicago-cubs").
func BySlug(slug string) (Team, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, t := range all {
		if t.Slug == slug {
			return t, true
		}
	}
	return Team{}, false
}

// MinSimilarity is the Jaro-Winkler score below which Resolve gives up.
const MinSimilarity = 0.85

// Resolve maps a free-form team name ("Chicago Cubs", "Cubs", "CHC",
// "Oakland Athletics") to a catalog team.
func Resolve(name string) (Team, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Team{}, false
	}
	if t, ok := ByAbbr(name); ok {
		return t, true
	}
	if t, ok := BySlug(name); ok {
		return t, true
	}

	lower := strings.ToLower(name)
	for _, t := range all {
		full := strings.ToLower(t.Name)
		if full == lower || strings.HasSuffix(full, " "+lower) {
			return t, true
		}
	}

	var best Team
	var bestScore float64
	for _, t := range all {
		score := matchr.JaroWinkler(lower, strings.ToLower(t.Name), false)
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	if bestScore >= MinSimilarity {
		return best, true
	}
	return Team{}, false
}
