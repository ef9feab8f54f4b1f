// Package espn scrapes ESPN's MLB pages and JSON APIs into normalized
// records, one method per stat category.
package espn

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/diamond/internal/extract"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/ingest/browser"
	"github.com/fortuna/diamond/internal/metrics"
	"github.com/fortuna/diamond/internal/teams"
)

const (
	Sport  = "MLB"
	Source = "ESPN"
)

// Datastore tables written by this package.
const (
	TablePlayerSplits   = "player_splits"
	TablePitchingSplits = "pitching_splits"
	TableBatVsPitch     = "bat_vs_pitch"
	TablePlayerStats    = "player_stats"
	TablePitcherStats   = "pitcher_stats"
	TableGamelog        = "player_gamelog"
	TableTeamSplits     = "team_splits"
	TableRoster         = "roster_data"
	TableInjuries       = "injuries"
	TableSchedule       = "team_schedule"
	TableNews           = "news"
	TableTeamBatting    = "team_batting_stats"
	TableTeamPitching   = "team_pitching_stats"
	TableTeamFielding   = "team_fielding_stats"
	TablePlayerBio      = "player_bio"
)

// TeamStatView is one tab of the league team stats page.
type TeamStatView struct {
	View   string
	Table  string
	Schema extract.Schema
}

// TeamStatViews are scraped in this order by TeamStats.
var TeamStatViews = []TeamStatView{
	{View: "batting", Table: TableTeamBatting, Schema: TeamBattingSchema},
	{View: "pitching", Table: TableTeamPitching, Schema: TeamPitchingSchema},
	{View: "fielding", Table: TableTeamFielding, Schema: TeamFieldingSchema},
}

// ErrNoBrowser is returned by the rendered-page categories when the
// ingester was built without a browser.
var ErrNoBrowser = errors.New("espn: browser rendering is not configured")

// Options configures an Ingester.
type Options struct {
	Fetcher *ingest.Fetcher
	// Browser starts a browser for each roster page, injuries and
	// schedule scrape.
	Browser browser.Launcher
	URLs    URLs
	Season  int
	Log     logrus.FieldLogger
}

// Ingester scrapes ESPN MLB categories.
type Ingester struct {
	fetch   *ingest.Fetcher
	browser browser.Launcher
	urls    URLs
	season  int
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewIngester creates an ESPN ingester.
func NewIngester(opts Options) *Ingester {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	season := opts.Season
	if season == 0 {
		season = time.Now().Year()
	}
	return &Ingester{
		fetch:   opts.Fetcher,
		browser: opts.Browser,
		urls:    opts.URLs.withDefaults(),
		season:  season,
		log:     log.WithField("source", "espn"),
		now:     time.Now,
	}
}

// PlayerSplits scrapes the batting splits page, one row per configured split.
func (i *Ingester) PlayerSplits(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	doc, ok := i.page(ctx, s, "splits", i.urls.PlayerSplits(s.ID, s.Slug()))
	if !ok {
		return nil, nil
	}
	ex := &extract.Extractor{
		Locator:  extract.Locator{Selector: "div.ResponsiveTable", Parse: extract.ParseResponsive, Policy: extract.PolicyAll},
		Splits:   BattingSplits,
		Schema:   BattingSplitsSchema,
		Coverage: true,
	}
	return i.fromDoc(s, doc, ex, TablePlayerSplits, "splits")
}

// PlayerSplitsAPI reads the same splits from the JSON API.
func (i *Ingester) PlayerSplitsAPI(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	var resp splitsResponse
	if !i.json(ctx, s, "splits api", i.urls.SplitsAPI(s.ID, i.season), &resp) {
		return nil, nil
	}
	ex := &extract.Extractor{Splits: BattingSplits, Schema: BattingSplitsSchema, Coverage: true}
	return i.fromTables(s, splitsTables(resp), ex, TablePlayerSplits, "splits"), nil
}

// PitchingSplits scrapes a pitcher's splits page. Labels sit in the frozen
// column and stats rows, which start with GP, follow in the scroller; the
// two are paired in order.
func (i *Ingester) PitchingSplits(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	doc, ok := i.page(ctx, s, "pitching splits", i.urls.PlayerSplits(s.ID, s.Slug()))
	if !ok {
		return nil, nil
	}
	ex := &extract.Extractor{
		Locator:      extract.Locator{Selector: "table", Policy: extract.PolicyAll},
		Splits:       PitchingSplits,
		Schema:       PitchingSplitsSchema,
		NumericFirst: true,
		Coverage:     true,
	}
	return i.fromDoc(s, doc, ex, TablePitchingSplits, "pitching_splits")
}

// BatVsPitch scrapes the batter's career line against every pitcher of
// each of the 30 clubs. A failed team page is logged and skipped.
func (i *Ingester) BatVsPitch(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	ex := &extract.Extractor{
		Locator: extract.Locator{Selector: "div.ResponsiveTable", Parse: extract.ParseResponsive, Policy: extract.PolicyAll},
		Schema:  BatVsPitchSchema,
		Log:     i.log,
	}

	var rows []extract.Row
	for _, team := range teams.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, ok := i.page(ctx, s, "batvspitch "+team.Abbr, i.urls.BatVsPitch(s.ID, team.ESPNID))
		if !ok {
			continue
		}
		teamRows, err := ex.Extract(doc)
		if err != nil {
			i.notFound(s, "batvspitch "+team.Abbr, err)
			continue
		}
		for _, r := range teamRows {
			r.Category = team.Abbr
			rows = append(rows, r)
		}
	}
	return i.output(s, BatVsPitchSchema, rows, TableBatVsPitch, "batvspitch"), nil
}

// PlayerStats scrapes the season-by-season stats table. Pitchers get the
// pitching table.
func (i *Ingester) PlayerStats(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	doc, ok := i.page(ctx, s, "stats", i.urls.PlayerStats(s.ID, s.Slug()))
	if !ok {
		return nil, nil
	}
	schema, table, required := PlayerStatsSchema, TablePlayerStats, []string{"SEASON", "AB"}
	if s.Role == "pitcher" {
		schema, table, required = PitcherStatsSchema, TablePitcherStats, []string{"SEASON", "ERA"}
	}
	ex := &extract.Extractor{
		Locator: extract.Locator{Selector: "div.ResponsiveTable", Parse: extract.ParseResponsive, Required: required},
		Splits:  extract.OpenSplitSet("SEASON"),
		Schema:  schema,
	}
	return i.fromDoc(s, doc, ex, table, "stats")
}

// Gamelog reads the gamelog API, one record per game grouped by month.
func (i *Ingester) Gamelog(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	var resp gamelogResponse
	if !i.json(ctx, s, "gamelog", i.urls.GamelogAPI(s.ID, i.season), &resp) {
		return nil, nil
	}
	ex := &extract.Extractor{Schema: GamelogSchema}
	return i.fromTables(s, gamelogTables(resp), ex, TableGamelog, "gamelog"), nil
}

// TeamSplits scrapes a team's split tables. Each table's title is the
// category; rows whose width differs from the header are dropped.
func (i *Ingester) TeamSplits(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	doc, ok := i.page(ctx, s, "team splits", i.urls.TeamSplits(s.Team))
	if !ok {
		return nil, nil
	}
	ex := &extract.Extractor{
		Locator: extract.Locator{Selector: "div.ResponsiveTable", Parse: extract.ParseResponsive, Policy: extract.PolicyAll},
		Schema:  TeamSplitsSchema,
		Strict:  true,
	}
	return i.fromDoc(s, doc, ex, TableTeamSplits, "team_splits")
}

// Roster reads a team roster from the roster API. Roster writes replace the
// team's previous rows.
func (i *Ingester) Roster(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	team, ok := teams.ByAbbr(s.Team)
	if !ok {
		return nil, fmt.Errorf("unknown team %q", s.Team)
	}
	var resp rosterResponse
	if !i.json(ctx, s, "roster", i.urls.RosterAPI(team.ESPNID), &resp) {
		return nil, nil
	}
	ex := &extract.Extractor{Schema: RosterSchema}
	out := i.fromTables(s, rosterTables(resp), ex, TableRoster, "roster")
	for n := range out {
		out[n].ReplaceKey = s.Name
	}
	return out, nil
}

var trailingDigits = regexp.MustCompile(`^(.*?\D)\s*(\d{1,2})$`)

// RosterPage renders the roster page in the browser. The page prints the
// jersey number glued to the player's name.
func (i *Ingester) RosterPage(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	doc, ok := i.rendered(ctx, s, "roster page", i.urls.TeamRoster(s.Team), "table")
	if !ok {
		return nil, nil
	}
	ex := &extract.Extractor{
		Locator: extract.Locator{Selector: "div.ResponsiveTable", Policy: extract.PolicyAll},
		Schema:  RosterSchema,
		Prepare: splitJersey,
	}
	out, err := i.fromDoc(s, doc, ex, TableRoster, "roster")
	for n := range out {
		out[n].ReplaceKey = s.Name
	}
	return out, err
}

// splitJersey moves a trailing jersey number out of the Name column.
func splitJersey(t *extract.RawTable) {
	col := -1
	for n, h := range t.Header {
		if strings.EqualFold(h, "Name") {
			col = n
			break
		}
	}
	if col < 0 {
		return
	}
	t.Header = append(t.Header, "Jersey")
	for n, row := range t.Rows {
		jersey := ""
		if col < len(row) {
			if m := trailingDigits.FindStringSubmatch(row[col]); m != nil {
				row[col], jersey = strings.TrimSpace(m[1]), m[2]
			}
		}
		t.Rows[n] = append(row, jersey)
	}
}

// Injuries renders the league injuries page. Each table is titled with
// the team it belongs to.
func (i *Ingester) Injuries(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	doc, ok := i.rendered(ctx, s, "injuries", i.urls.Injuries(), "table")
	if !ok {
		return nil, nil
	}
	ex := &extract.Extractor{
		Locator: extract.Locator{Selector: "div.ResponsiveTable", Policy: extract.PolicyAll},
		Schema:  InjuriesSchema,
	}
	return i.fromDoc(s, doc, ex, TableInjuries, "injuries")
}

// Schedule renders a team schedule. The page repeats its header row at
// every section; those rows are skipped.
func (i *Ingester) Schedule(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	doc, ok := i.rendered(ctx, s, "schedule", i.urls.TeamSchedule(s.Team), "table")
	if !ok {
		return nil, nil
	}
	ex := &extract.Extractor{
		Locator: extract.Locator{Selector: "table", Policy: extract.PolicyFirst},
		Schema:  ScheduleSchema,
		Prepare: promoteHeader("DATE"),
	}
	return i.fromDoc(s, doc, ex, TableSchedule, "schedule")
}

// promoteHeader uses the first row led by token as the header when the
// table has none.
func promoteHeader(token string) func(*extract.RawTable) {
	return func(t *extract.RawTable) {
		if len(t.Header) > 0 {
			return
		}
		for _, row := range t.Rows {
			if len(row) > 0 && strings.EqualFold(row[0], token) {
				t.Header = append([]string(nil), row...)
				return
			}
		}
	}
}

// News reads the article teasers on a team's page.
func (i *Ingester) News(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	doc, ok := i.page(ctx, s, "news", i.urls.TeamNews(s.Team))
	if !ok {
		return nil, nil
	}
	table := newsTable(doc)
	if len(table.Rows) == 0 {
		i.log.WithField("subject", s.Name).Warn("[espn] ⚠️ no news items found")
		return nil, nil
	}
	ex := &extract.Extractor{Schema: NewsSchema}
	return i.fromTables(s, []extract.RawTable{table}, ex, TableNews, "news"), nil
}

// LeagueNews reads the league-wide player news page.
func (i *Ingester) LeagueNews(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	doc, ok := i.page(ctx, s, "league news", i.urls.LeagueNews())
	if !ok {
		return nil, nil
	}
	table := newsTable(doc)
	if len(table.Rows) == 0 {
		i.log.WithField("subject", s.Name).Warn("[espn] ⚠️ no news items found")
		return nil, nil
	}
	table.Title = "Player News"
	ex := &extract.Extractor{Schema: NewsSchema}
	return i.fromTables(s, []extract.RawTable{table}, ex, TableNews, "news"), nil
}

// TeamStats scrapes the league team batting, pitching and fielding
// leaderboards, one output per view. Each row is one club.
func (i *Ingester) TeamStats(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	var outs []ingest.Output
	for _, v := range TeamStatViews {
		if err := ctx.Err(); err != nil {
			return outs, err
		}
		doc, ok := i.page(ctx, s, "team "+v.View, i.urls.TeamStats(v.View, i.season))
		if !ok {
			continue
		}
		ex := &extract.Extractor{
			Locator: extract.Locator{Selector: "div.ResponsiveTable", Parse: extract.ParseResponsive, Policy: extract.PolicyAll},
			Splits:  extract.OpenSplitSet(v.View),
			Schema:  v.Schema,
			Prepare: labelFirst("Team"),
		}
		out, err := i.fromDoc(s, doc, ex, v.Table, "team "+v.View)
		if err != nil {
			return outs, err
		}
		outs = append(outs, out...)
	}
	return outs, nil
}

// PlayerBio reads a player's biography from the athlete API.
func (i *Ingester) PlayerBio(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	var resp bioResponse
	if !i.json(ctx, s, "bio", i.urls.AthleteAPI(s.ID), &resp) {
		return nil, nil
	}
	table := bioTable(resp)
	if len(table.Rows) == 0 {
		i.notFound(s, "bio", extract.ErrTableNotFound)
		return nil, nil
	}
	ex := &extract.Extractor{Splits: extract.OpenSplitSet("Bio"), Schema: PlayerBioSchema}
	return i.fromTables(s, []extract.RawTable{table}, ex, TablePlayerBio, "bio"), nil
}

// page fetches and parses an HTML page. Failures are logged with their
// status code and reported as !ok.
func (i *Ingester) page(ctx context.Context, s ingest.Subject, what, url string) (*goquery.Document, bool) {
	doc, err := i.fetch.GetHTML(ctx, url)
	if err != nil {
		i.fetchFailed(s, what, url, err)
		return nil, false
	}
	return doc, true
}

func (i *Ingester) json(ctx context.Context, s ingest.Subject, what, url string, out interface{}) bool {
	if err := i.fetch.GetJSON(ctx, url, out); err != nil {
		i.fetchFailed(s, what, url, err)
		return false
	}
	return true
}

// rendered opens a browser for this one page and always closes it.
func (i *Ingester) rendered(ctx context.Context, s ingest.Subject, what, url, ready string) (*goquery.Document, bool) {
	if i.browser == nil {
		i.fetchFailed(s, what, url, ErrNoBrowser)
		return nil, false
	}
	var doc *goquery.Document
	err := browser.With(ctx, i.browser, func(r browser.Renderer) error {
		var err error
		doc, err = r.RenderHTML(ctx, url, ready)
		return err
	})
	if err != nil {
		metrics.Fetches.WithLabelValues("espn-browser", "error").Inc()
		i.fetchFailed(s, what, url, err)
		return nil, false
	}
	metrics.Fetches.WithLabelValues("espn-browser", "ok").Inc()
	return doc, true
}

func (i *Ingester) fetchFailed(s ingest.Subject, what, url string, err error) {
	i.log.WithFields(logrus.Fields{
		"subject": s.Name,
		"url":     url,
		"status":  ingest.StatusCode(err),
	}).WithError(err).Errorf("[espn] ❌ failed to fetch %s", what)
}

func (i *Ingester) notFound(s ingest.Subject, what string, err error) {
	i.log.WithField("subject", s.Name).WithError(err).Warnf("[espn] ⚠️ no %s table", what)
}

func (i *Ingester) fromDoc(s ingest.Subject, doc *goquery.Document, ex *extract.Extractor, table, category string) ([]ingest.Output, error) {
	if ex.Log == nil {
		ex.Log = i.log
	}
	rows, err := ex.Extract(doc)
	if err != nil {
		if errors.Is(err, extract.ErrTableNotFound) {
			i.notFound(s, category, err)
			return nil, nil
		}
		return nil, err
	}
	return i.output(s, ex.Schema, rows, table, category), nil
}

func (i *Ingester) fromTables(s ingest.Subject, tables []extract.RawTable, ex *extract.Extractor, table, category string) []ingest.Output {
	if len(tables) == 0 {
		i.notFound(s, category, extract.ErrTableNotFound)
		return nil
	}
	if ex.Log == nil {
		ex.Log = i.log
	}
	return i.output(s, ex.Schema, ex.Rows(tables), table, category)
}

func (i *Ingester) output(s ingest.Subject, schema extract.Schema, rows []extract.Row, table, category string) []ingest.Output {
	if len(rows) == 0 {
		i.log.WithField("subject", s.Name).Warnf("[espn] ⚠️ no %s rows extracted", category)
		return nil
	}
	records := extract.Normalize(i.context(s), schema, rows)
	metrics.RecordsExtracted.WithLabelValues(table).Add(float64(len(records)))
	i.log.WithField("subject", s.Name).Infof("[espn] ✓ %d %s records", len(records), category)
	return []ingest.Output{{
		Table:    table,
		Category: category,
		Schema:   schema,
		Records:  records,
	}}
}

func (i *Ingester) context(s ingest.Subject) extract.Context {
	return extract.Context{
		Sport:      Sport,
		Subject:    s.Name,
		SubjectID:  s.ID,
		Team:       s.Team,
		Season:     i.season,
		Source:     Source,
		CapturedAt: i.now().UTC(),
	}
}
