// Package teamrankings scrapes the tr-table stat and trend pages on
// teamrankings.com.
package teamrankings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/diamond/internal/extract"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/metrics"
	"github.com/fortuna/diamond/internal/teams"
)

const (
	DefaultBaseURL = "https://www.teamrankings.com"
	Source         = "TeamRankings"
	TableStats     = "team_stats"
	TableTrends    = "team_trends"
)

// DefaultStats are the league stat pages scraped when none are configured.
var DefaultStats = []string{
	"runs-per-game",
	"batting-average",
	"on-base-percentage",
	"slugging-pct",
	"home-runs-per-game",
	"strikeouts-per-game",
	"earned-run-average",
	"walks-per-9",
}

// DefaultTrends are the per-team trend pages.
var DefaultTrends = []string{"run-line-trends", "win-trends", "over-under-trends"}

// slugs holds the teams whose teamrankings slug differs from ESPN's.
var slugs = map[string]string{
	"ATH": "oakland-athletics",
}

// StatSchema is one league stat page: a team per row, the current season,
// recent form, home/away splits and the previous season.
var StatSchema = extract.Schema{
	Name: "team_stats",
	Fields: []extract.Field{
		extract.Count("Rank", "stat_rank"),
		extract.Ratio("Current", "current_season"),
		extract.Ratio("Last 3", "last_3"),
		extract.Ratio("Last 1", "last_1"),
		extract.Ratio("Home", "home_value"),
		extract.Ratio("Away", "away_value"),
		extract.Ratio("Previous", "previous_season"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Stat", "Team"},
}

// TrendSchema covers the trend pages. Each page names its record and
// margin columns differently; the aliases fold them together.
var TrendSchema = extract.Schema{
	Name: "team_trends",
	Fields: []extract.Field{
		extract.Text("Record", "record", "Run Line Record", "Win-Loss Record", "Over-Under Record", "Over Record"),
		extract.Ratio("Pct", "pct", "Cover %", "Win %", "Over %"),
		extract.Ratio("MOV", "mov"),
		extract.Ratio("Margin", "margin", "Run Line +/-", "ATS +/-", "Total +/-"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Trend Type", "Trend"},
}

// Options configures an Ingester.
type Options struct {
	Fetcher *ingest.Fetcher
	BaseURL string
	Season  int
	Stats   []string
	Trends  []string
	Log     logrus.FieldLogger
}

// Ingester scrapes teamrankings.com.
type Ingester struct {
	fetch  *ingest.Fetcher
	base   string
	season int
	stats  []string
	trends []string
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewIngester(opts Options) *Ingester {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	i := &Ingester{
		fetch:  opts.Fetcher,
		base:   strings.TrimRight(opts.BaseURL, "/"),
		season: opts.Season,
		stats:  opts.Stats,
		trends: opts.Trends,
		log:    log.WithField("source", "teamrankings"),
		now:    time.Now,
	}
	if i.base == "" {
		i.base = DefaultBaseURL
	}
	if i.season == 0 {
		i.season = time.Now().Year()
	}
	if len(i.stats) == 0 {
		i.stats = DefaultStats
	}
	if len(i.trends) == 0 {
		i.trends = DefaultTrends
	}
	return i
}

// Slug is the teamrankings URL name of an MLB team.
func Slug(abbr string) (string, bool) {
	t, ok := teams.ByAbbr(abbr)
	if !ok {
		return "", false
	}
	if s, ok := slugs[t.Abbr]; ok {
		return s, true
	}
	return t.Slug, true
}

// Stats scrapes every configured league stat page, one output per stat.
// A page that fails or has no table is logged and skipped.
func (i *Ingester) Stats(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	var outs []ingest.Output
	for _, stat := range i.stats {
		if err := ctx.Err(); err != nil {
			return outs, err
		}
		ex := &extract.Extractor{
			Locator:    extract.Locator{Selector: "table.tr-table"},
			Splits:     extract.OpenSplitSet(stat),
			Schema:     StatSchema,
			LabelIndex: 1,
			Prepare:    i.seasonHeaders,
			Log:        i.log,
		}
		out, err := i.scrape(ctx, s, fmt.Sprintf("%s/mlb/stat/%s", i.base, stat), ex, TableStats, stat)
		if err != nil {
			return outs, err
		}
		outs = append(outs, out...)
	}
	return outs, nil
}

// Trends scrapes the configured trend pages of one team.
func (i *Ingester) Trends(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	slug, ok := Slug(s.Team)
	if !ok {
		return nil, fmt.Errorf("unknown team %q", s.Team)
	}
	var outs []ingest.Output
	for _, trend := range i.trends {
		if err := ctx.Err(); err != nil {
			return outs, err
		}
		category := strings.TrimSuffix(trend, "-trends")
		ex := &extract.Extractor{
			Locator: extract.Locator{Selector: "table.tr-table"},
			Splits:  extract.OpenSplitSet(category),
			Schema:  TrendSchema,
			Log:     i.log,
		}
		out, err := i.scrape(ctx, s, fmt.Sprintf("%s/mlb/team/%s/%s", i.base, slug, trend), ex, TableTrends, category)
		if err != nil {
			return outs, err
		}
		outs = append(outs, out...)
	}
	return outs, nil
}

func (i *Ingester) scrape(ctx context.Context, s ingest.Subject, url string, ex *extract.Extractor, table, category string) ([]ingest.Output, error) {
	log := i.log.WithFields(logrus.Fields{"subject": s.Name, "url": url})

	doc, err := i.fetch.GetHTML(ctx, url)
	if err != nil {
		log.WithField("status", ingest.StatusCode(err)).WithError(err).Errorf("[teamrankings] ❌ failed to fetch %s", category)
		return nil, nil
	}
	rows, err := ex.Extract(doc)
	if errors.Is(err, extract.ErrTableNotFound) {
		log.WithError(err).Warnf("[teamrankings] ⚠️ no %s table", category)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		log.Warnf("[teamrankings] ⚠️ no %s rows extracted", category)
		return nil, nil
	}
	// Page headings are not categories here.
	for n := range rows {
		rows[n].Category = category
	}

	records := extract.Normalize(extract.Context{
		Sport:      "MLB",
		Subject:    s.Name,
		SubjectID:  s.ID,
		Team:       s.Team,
		Season:     i.season,
		Source:     Source,
		CapturedAt: i.now().UTC(),
	}, ex.Schema, rows)
	metrics.RecordsExtracted.WithLabelValues(table).Add(float64(len(records)))
	log.Infof("[teamrankings] ✓ %d %s records", len(records), category)

	return []ingest.Output{{Table: table, Category: category, Schema: ex.Schema, Records: records}}, nil
}

// seasonHeaders renames the season-year columns to Current and Previous.
func (i *Ingester) seasonHeaders(t *extract.RawTable) {
	current, previous := strconv.Itoa(i.season), strconv.Itoa(i.season-1)
	for n, h := range t.Header {
		switch h {
		case current:
			t.Header[n] = "Current"
		case previous:
			t.Header[n] = "Previous"
		}
	}
}
