package espn

import (
	"github.com/fortuna/diamond/internal/extract"
	"github.com/fortuna/diamond/internal/teams"
)

var battingFields = []extract.Field{
	extract.Count("AB", "at_bats"),
	extract.Count("R", "runs"),
	extract.Count("H", "hits"),
	extract.Count("2B", "doubles"),
	extract.Count("3B", "triples"),
	extract.Count("HR", "home_runs"),
	extract.Count("RBI", "rbi"),
	extract.Count("BB", "walks"),
	extract.Count("HBP", "hit_by_pitch"),
	extract.Count("SO", "strikeouts", "K"),
	extract.Count("SB", "stolen_bases"),
	extract.Count("CS", "caught_stealing"),
	extract.Ratio("AVG", "batting_avg"),
	extract.Ratio("OBP", "on_base_pct"),
	extract.Ratio("SLG", "slugging_pct"),
	extract.Ratio("OPS", "ops"),
}

// BattingSplitsSchema is the player splits page and splits API layout.
var BattingSplitsSchema = extract.Schema{
	Name:         "splits",
	Fields:       battingFields,
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Split Type", "Split Value"},
}

// BattingSplits is the full MLB batting split catalog in page order.
var BattingSplits = extract.NewSplitSet(
	extract.Category{Name: "OVERALL", Labels: []string{"OVERALL"}},
	extract.Category{Name: "BREAKDOWN", Labels: []string{"vs. Left", "vs. Right", "Home", "Away", "Day", "Night"}},
	extract.Category{Name: "DAY/MONTH", Labels: []string{
		"March", "April", "May", "June", "July", "August", "September",
		"Last 7 Days", "Last 15 Days", "Last 30 Days",
	}},
	extract.Category{Name: "OPPONENT", Labels: teams.OpponentLabels},
	extract.Category{Name: "STADIUM", Labels: teams.Stadiums},
	extract.Category{Name: "POSITION", Labels: []string{"As C", "As 1B", "As 2B", "As 3B", "As SS", "As LF", "As CF", "As RF", "As DH"}},
	extract.Category{Name: "COUNT", Labels: []string{
		"Count 0-0", "Count 0-1", "Count 0-2", "Count 1-0", "Count 1-1", "Count 1-2",
		"Count 2-0", "Count 2-1", "Count 2-2", "Count 3-0", "Count 3-1", "Count 3-2",
	}},
	extract.Category{Name: "BATTING ORDER", Labels: []string{
		"Batting #1", "Batting #2", "Batting #3", "Batting #4", "Batting #5",
		"Batting #6", "Batting #7", "Batting #8", "Batting #9",
	}},
	extract.Category{Name: "SITUATION", Labels: []string{
		"None On", "Runners On", "Scoring Position", "Bases Loaded", "Lead Off Inning", "Scoring Position, 2 Out",
	}},
).WithPatterns(
	extract.PrefixPattern("OPPONENT", "vs."),
	extract.KeywordPattern("STADIUM", "park", "field", "stadium", "centre"),
)

// PitchingSplitsSchema is the pitcher splits layout.
var PitchingSplitsSchema = extract.Schema{
	Name: "pitching_splits",
	Fields: []extract.Field{
		extract.Count("GP", "games_played"),
		extract.Ratio("IP", "innings_pitched"),
		extract.Count("W", "wins"),
		extract.Count("L", "losses"),
		extract.Ratio("W%", "win_pct"),
		extract.Count("SV", "saves"),
		extract.Count("SVOP", "save_opportunities"),
		extract.Count("BB", "walks"),
		extract.Count("K", "strikeouts", "SO"),
		extract.Ratio("ERA", "era"),
		extract.Ratio("OBA", "opp_batting_avg"),
		extract.Ratio("OOBP", "opp_on_base_pct"),
		extract.Ratio("OSLUG", "opp_slugging_pct"),
		extract.Ratio("OOPS", "opp_ops"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Split"},
}

// PitchingSplits are the splits reported for every pitcher. The page lists
// labels in its frozen column and stats, led by GP, in the scroller.
var PitchingSplits = extract.NewSplitSet(
	extract.Category{Name: "OVERALL", Labels: []string{"Total"}},
	extract.Category{Name: "BREAKDOWN", Labels: []string{"Home", "Away", "Day", "Night"}},
	extract.Category{Name: "MONTH", Labels: []string{"April", "May", "June", "July", "August", "September"}},
	extract.Category{Name: "SEASON", Labels: []string{"Pre All-Star", "Post All-Star"}},
)

// BatVsPitchSchema is one batter's career line against each pitcher.
var BatVsPitchSchema = extract.Schema{
	Name: "batvspitch",
	Fields: []extract.Field{
		extract.Count("AB", "at_bats"),
		extract.Count("H", "hits"),
		extract.Count("2B", "doubles"),
		extract.Count("3B", "triples"),
		extract.Count("HR", "home_runs"),
		extract.Count("RBI", "rbi"),
		extract.Count("BB", "walks"),
		extract.Count("K", "strikeouts", "SO"),
		extract.Ratio("AVG", "batting_avg"),
		extract.Ratio("OBP", "on_base_pct"),
		extract.Ratio("SLG", "slugging_pct"),
		extract.Ratio("OPS", "ops"),
	},
	Default: extract.Zero,
	Defaults: map[string]string{
		"AVG": extract.ZeroAverage, "OBP": extract.ZeroAverage, "SLG": extract.ZeroAverage, "OPS": extract.ZeroAverage,
	},
	LabelColumns: []string{"Team", "Pitcher"},
}

// PlayerStatsSchema is the season-by-season table on the player stats page.
var PlayerStatsSchema = extract.Schema{
	Name: "stats",
	Fields: append([]extract.Field{
		extract.Text("TEAM", "team_name"),
		extract.Count("G", "games_played", "GP"),
	}, battingFieldsWithout("HBP")...),
	Default:      extract.NotAvailable,
	LabelColumns: []string{"SEASON"},
}

// PitcherStatsSchema is the season table on a pitcher's stats page.
var PitcherStatsSchema = extract.Schema{
	Name: "stats",
	Fields: []extract.Field{
		extract.Text("TEAM", "team_name"),
		extract.Count("GP", "games_played", "G"),
		extract.Count("GS", "games_started"),
		extract.Count("W", "wins"),
		extract.Count("L", "losses"),
		extract.Count("SV", "saves"),
		extract.Count("HLD", "holds"),
		extract.Ratio("IP", "innings_pitched"),
		extract.Count("H", "hits"),
		extract.Count("ER", "earned_runs"),
		extract.Count("HR", "home_runs"),
		extract.Count("BB", "walks"),
		extract.Count("K", "strikeouts", "SO"),
		extract.Ratio("ERA", "era"),
		extract.Ratio("WHIP", "whip"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"SEASON"},
}

// GamelogSchema is one row per game from the gamelog API.
var GamelogSchema = extract.Schema{
	Name: "gamelog",
	Fields: append([]extract.Field{
		extract.Text("OPP", "opponent"),
		extract.Text("Result", "result", "RESULT"),
	}, battingFields...),
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Month", "Date"},
}

// TeamSplitsSchema covers the team batting splits tables.
var TeamSplitsSchema = extract.Schema{
	Name: "team_splits",
	Fields: []extract.Field{
		extract.Count("GP", "games_played"),
		extract.Count("AB", "at_bats"),
		extract.Count("R", "runs"),
		extract.Count("H", "hits"),
		extract.Count("2B", "doubles"),
		extract.Count("3B", "triples"),
		extract.Count("HR", "home_runs"),
		extract.Count("RBI", "rbi"),
		extract.Count("TB", "total_bases"),
		extract.Count("BB", "walks"),
		extract.Count("SO", "strikeouts", "K"),
		extract.Count("SB", "stolen_bases"),
		extract.Ratio("AVG", "batting_avg"),
		extract.Ratio("OBP", "on_base_pct"),
		extract.Ratio("SLG", "slugging_pct"),
		extract.Ratio("OPS", "ops"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Category", "Split"},
}

// TeamBattingSchema is the league team batting leaderboard.
var TeamBattingSchema = extract.Schema{
	Name:         "team_batting",
	Fields:       append([]extract.Field{extract.Count("RK", "stat_rank")}, TeamSplitsSchema.Fields...),
	Default:      extract.NotAvailable,
	LabelColumns: []string{"View", "Team"},
}

// TeamPitchingSchema is the league team pitching leaderboard.
var TeamPitchingSchema = extract.Schema{
	Name: "team_pitching",
	Fields: []extract.Field{
		extract.Count("RK", "stat_rank"),
		extract.Count("GP", "games_played"),
		extract.Count("W", "wins"),
		extract.Count("L", "losses"),
		extract.Ratio("ERA", "era"),
		extract.Count("SV", "saves"),
		extract.Count("CG", "complete_games"),
		extract.Count("SHO", "shutouts"),
		extract.Count("QS", "quality_starts"),
		extract.Ratio("IP", "innings_pitched"),
		extract.Count("H", "hits"),
		extract.Count("ER", "earned_runs"),
		extract.Count("HR", "home_runs"),
		extract.Count("BB", "walks"),
		extract.Count("K", "strikeouts", "SO"),
		extract.Ratio("OBA", "opp_batting_avg"),
		extract.Ratio("WHIP", "whip"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"View", "Team"},
}

// TeamFieldingSchema is the league team fielding leaderboard.
var TeamFieldingSchema = extract.Schema{
	Name: "team_fielding",
	Fields: []extract.Field{
		extract.Count("RK", "stat_rank"),
		extract.Count("GP", "games_played"),
		extract.Count("E", "errors"),
		extract.Ratio("FP", "fielding_pct"),
		extract.Count("TC", "total_chances"),
		extract.Count("PO", "putouts"),
		extract.Count("A", "assists"),
		extract.Count("DP", "double_plays"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"View", "Team"},
}

// PlayerBioSchema is the athlete API's biography, one row per player.
var PlayerBioSchema = extract.Schema{
	Name: "bio",
	Fields: []extract.Field{
		extract.Text("Team", "team_name"),
		extract.Text("Position", "position"),
		extract.Count("Age", "age"),
		extract.Text("Height", "height"),
		extract.Text("Weight", "weight"),
		extract.Text("Birthplace", "birth_place"),
		extract.Text("College", "college"),
		extract.Count("Experience", "experience_years"),
		extract.Text("Jersey", "jersey"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Section", "Name"},
}

// RosterSchema is one player row on a team roster.
var RosterSchema = extract.Schema{
	Name: "roster",
	Fields: []extract.Field{
		extract.Text("Jersey", "jersey", "#"),
		extract.Text("POS", "position"),
		extract.Text("BAT", "bats"),
		extract.Text("THW", "throws"),
		extract.Count("Age", "age", "AGE"),
		extract.Text("HT", "height"),
		extract.Text("WT", "weight"),
		extract.Text("Birth Place", "birth_place", "BIRTHPLACE"),
		extract.Text("ID", "player_id"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Group", "Name"},
}

// InjuriesSchema is the league injuries page, one table per team.
var InjuriesSchema = extract.Schema{
	Name: "injuries",
	Fields: []extract.Field{
		extract.Text("POS", "position"),
		extract.Text("EST. RETURN DATE", "est_return_date"),
		extract.Text("STATUS", "status"),
		extract.Text("COMMENT", "comment", "DETAILS"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Team", "Name"},
}

// ScheduleSchema is a team schedule table.
var ScheduleSchema = extract.Schema{
	Name: "schedule",
	Fields: []extract.Field{
		extract.Text("OPPONENT", "opponent"),
		extract.Text("RESULT", "result", "TIME"),
		extract.Text("W-L", "record", "TV"),
		extract.Text("WIN", "winning_pitcher", "TICKETS"),
		extract.Text("LOSS", "losing_pitcher"),
		extract.Text("SAVE", "save_pitcher"),
		extract.Count("ATT", "attendance"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Section", "Date"},
}

// NewsSchema is one headline from a team page.
var NewsSchema = extract.Schema{
	Name: "news",
	Fields: []extract.Field{
		extract.Text("Published", "published"),
		extract.Text("Summary", "summary"),
		extract.Text("Link", "link"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Section", "Headline"},
}

func battingFieldsWithout(names ...string) []extract.Field {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := make([]extract.Field, 0, len(battingFields))
	for _, f := range battingFields {
		if !skip[f.Name] {
			out = append(out, f)
		}
	}
	return out
}
