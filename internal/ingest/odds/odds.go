// Package odds reads MLB moneylines from The Odds API.
package odds

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/diamond/internal/extract"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/metrics"
	"github.com/fortuna/diamond/internal/teams"
)

const (
	DefaultBaseURL = "https://api.the-odds-api.com/v4"
	SportKey       = "baseball_mlb"
	Source         = "The Odds API"
	Table          = "odds_data"
	Market         = "h2h"
)

// ErrMissingAPIKey is returned when no API key was configured.
var ErrMissingAPIKey = errors.New("odds: ODDS_API_KEY is not set")

// Schema is one head-to-head line per game.
var Schema = extract.Schema{
	Name: "odds",
	Fields: []extract.Field{
		extract.Text("Home Team", "home_team"),
		extract.Text("Away Team", "away_team"),
		extract.Text("Home Abbr", "home_abbr"),
		extract.Text("Away Abbr", "away_abbr"),
		extract.Count("Home Odds", "home_odds"),
		extract.Count("Away Odds", "away_odds"),
		extract.Text("Bookmaker", "bookmaker"),
		extract.Text("Commence Time", "commence_time"),
		extract.Text("Game Date", "game_date"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Market", "Game"},
}

type game struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []market `json:"markets"`
}

type market struct {
	Key      string    `json:"key"`
	Outcomes []outcome `json:"outcomes"`
}

type outcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Options configures an Ingester.
type Options struct {
	Fetcher *ingest.Fetcher
	BaseURL string
	APIKey  string
	Season  int
	Log     logrus.FieldLogger
}

// Ingester fetches the current MLB moneyline board.
type Ingester struct {
	fetch  *ingest.Fetcher
	base   string
	key    string
	season int
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewIngester(opts Options) *Ingester {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Ingester{
		fetch:  opts.Fetcher,
		base:   base,
		key:    opts.APIKey,
		season: opts.Season,
		log:    log.WithField("source", "odds"),
		now:    time.Now,
	}
}

// URL is the odds endpoint. Prices are requested in American format.
func (i *Ingester) URL() string {
	q := url.Values{}
	q.Set("apiKey", i.key)
	q.Set("regions", "us")
	q.Set("markets", Market)
	q.Set("oddsFormat", "american")
	return fmt.Sprintf("%s/sports/%s/odds/?%s", i.base, SportKey, q.Encode())
}

// Odds scrapes the board. Games without bookmakers or without a price for
// both teams are logged and skipped.
func (i *Ingester) Odds(ctx context.Context, s ingest.Subject) ([]ingest.Output, error) {
	if i.key == "" {
		return nil, ErrMissingAPIKey
	}

	var games []game
	if err := i.fetch.GetJSON(ctx, i.URL(), &games); err != nil {
		i.log.WithField("status", ingest.StatusCode(err)).WithError(err).Error("[odds] ❌ failed to fetch odds")
		return nil, nil
	}
	if len(games) == 0 {
		i.log.Warn("[odds] ⚠️ no games found")
		return nil, nil
	}

	table := extract.RawTable{Title: Market, Header: append([]string{"Game"}, Schema.Names()...)}
	for _, g := range games {
		row, ok := i.row(g)
		if ok {
			table.Rows = append(table.Rows, row)
		}
	}

	ex := &extract.Extractor{Schema: Schema, Splits: extract.OpenSplitSet(Market), Log: i.log}
	rows := ex.Rows([]extract.RawTable{table})
	if len(rows) == 0 {
		i.log.Warn("[odds] ⚠️ no priced games")
		return nil, nil
	}

	ctxFields := extract.Context{
		Sport:      "MLB",
		Subject:    s.Name,
		SubjectID:  s.ID,
		Season:     i.season,
		Source:     Source,
		CapturedAt: i.now().UTC(),
	}
	records := extract.Normalize(ctxFields, Schema, rows)
	metrics.RecordsExtracted.WithLabelValues(Table).Add(float64(len(records)))
	i.log.Infof("[odds] ✓ %d games priced", len(records))

	return []ingest.Output{{Table: Table, Category: Market, Schema: Schema, Records: records}}, nil
}

func (i *Ingester) row(g game) ([]string, bool) {
	log := i.log.WithFields(logrus.Fields{"home": g.HomeTeam, "away": g.AwayTeam})
	if len(g.Bookmakers) == 0 {
		log.Warnf("[odds] ⚠️ no bookmakers for %s vs %s", g.HomeTeam, g.AwayTeam)
		return nil, false
	}

	book := g.Bookmakers[0]
	var outcomes []outcome
	for _, m := range book.Markets {
		if m.Key == Market || m.Key == "" {
			outcomes = m.Outcomes
			break
		}
	}
	home, homeOK := price(outcomes, g.HomeTeam)
	away, awayOK := price(outcomes, g.AwayTeam)
	if !homeOK || !awayOK {
		log.Warnf("[odds] ⚠️ missing odds for %s vs %s", g.HomeTeam, g.AwayTeam)
		return nil, false
	}

	return []string{
		g.AwayTeam + " @ " + g.HomeTeam,
		g.HomeTeam,
		g.AwayTeam,
		abbr(g.HomeTeam),
		abbr(g.AwayTeam),
		strconv.Itoa(home),
		strconv.Itoa(away),
		fallback(book.Title, book.Key),
		g.CommenceTime,
		i.now().Format("2006-01-02"),
	}, true
}

// price returns the American price for team, rounded to an int.
func price(outcomes []outcome, team string) (int, bool) {
	for _, o := range outcomes {
		if o.Name == team {
			return int(math.Round(o.Price)), true
		}
	}
	return 0, false
}

func abbr(name string) string {
	if t, ok := teams.Resolve(name); ok {
		return t.Abbr
	}
	return ""
}

func fallback(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
