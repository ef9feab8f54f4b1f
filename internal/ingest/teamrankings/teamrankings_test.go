package teamrankings

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/diamond/internal/config"
	"github.com/fortuna/diamond/internal/extract"
	"github.com/fortuna/diamond/internal/ingest"
)

func newTestIngester(t *testing.T, pages map[string]string, opts Options) *Ingester {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	opts.Fetcher = ingest.NewFetcher(ingest.Options{Source: "teamrankings", Policy: config.SourcePolicy{Timeout: 2 * time.Second}, Log: log})
	opts.BaseURL = srv.URL
	opts.Season = 2025
	opts.Log = log
	return NewIngester(opts)
}

const statPage = `<html><body>
<h1>MLB Team Runs per Game</h1>
<h2>Season Stats</h2>
<table class="tr-table datatable scrollable">
  <thead><tr><th>Rank</th><th>Team</th><th>2025</th><th>Last 3</th><th>Last 1</th><th>Home</th><th>Away</th><th>2024</th></tr></thead>
  <tbody>
    <tr><td>1</td><td>Chi Cubs</td><td>5.41</td><td>6.00</td><td>8.00</td><td>5.60</td><td>5.20</td><td>4.52</td></tr>
    <tr><td>2</td><td>NY Yankees</td><td>5.30</td><td>4.33</td><td>3.00</td><td>5.50</td><td>5.10</td><td>5.03</td></tr>
  </tbody>
</table>
</body></html>`

func TestStatsRenamesSeasonColumns(t *testing.T) {
	ing := newTestIngester(t, map[string]string{"/mlb/stat/runs-per-game": statPage}, Options{
		Stats: []string{"runs-per-game", "batting-average"},
	})

	outs, err := ing.Stats(context.Background(), ingest.Subject{Kind: ingest.KindLeague, Name: "MLB"})
	require.NoError(t, err)
	require.Len(t, outs, 1, "the missing batting-average page is skipped")

	out := outs[0]
	assert.Equal(t, TableStats, out.Table)
	assert.Equal(t, "runs-per-game", out.Category)
	require.Len(t, out.Records, 2)

	cubs := out.Records[0]
	assert.Equal(t, "Chi Cubs", cubs.Label)
	assert.Equal(t, "runs-per-game", cubs.Category)
	rank, _ := cubs.Value("Rank")
	current, _ := cubs.Value("Current")
	previous, _ := cubs.Value("Previous")
	assert.Equal(t, int64(1), rank.Interface())
	assert.Equal(t, "5.41", current.String())
	assert.Equal(t, "4.52", previous.String())
}

func TestTrendsFoldsColumnNames(t *testing.T) {
	ing := newTestIngester(t, map[string]string{
		"/mlb/team/chicago-cubs/run-line-trends": `<table class="tr-table">
			<thead><tr><th>Trend</th><th>Run Line Record</th><th>Cover %</th><th>MOV</th><th>Run Line +/-</th></tr></thead>
			<tbody>
				<tr><td>All Games</td><td>45-40-0</td><td>52.9%</td><td>+0.4</td><td>+3.2</td></tr>
				<tr><td>As Favorite</td><td>30-22-0</td><td>57.7%</td><td>+1.1</td><td>+4.0</td></tr>
			</tbody></table>`,
		"/mlb/team/chicago-cubs/win-trends": `<table class="tr-table">
			<thead><tr><th>Trend</th><th>Win-Loss Record</th><th>Win %</th><th>MOV</th><th>ATS +/-</th></tr></thead>
			<tbody><tr><td>All Games</td><td>50-35</td><td>58.8%</td><td>+0.9</td><td>+0.4</td></tr></tbody></table>`,
	}, Options{Trends: []string{"run-line-trends", "win-trends", "over-under-trends"}})

	cubs := ingest.Subject{Kind: ingest.KindTeam, Name: "Chicago Cubs", Team: "CHC"}
	outs, err := ing.Trends(context.Background(), cubs)
	require.NoError(t, err)
	require.Len(t, outs, 2)

	runLine := outs[0]
	assert.Equal(t, "run-line", runLine.Category)
	require.Len(t, runLine.Records, 2)
	record, _ := runLine.Records[0].Value("Record")
	pct, _ := runLine.Records[0].Value("Pct")
	assert.Equal(t, "45-40-0", record.String())
	assert.Equal(t, "52.9%", pct.String())

	win := outs[1]
	assert.Equal(t, "win", win.Category)
	margin, _ := win.Records[0].Value("Margin")
	assert.Equal(t, "+0.4", margin.String())
	for _, r := range win.Records {
		assert.Len(t, r.Stats, TrendSchema.Len())
		assert.NotEqual(t, extract.NotAvailable, r.Label)
	}
}

func TestTrendsRejectsUnknownTeam(t *testing.T) {
	ing := newTestIngester(t, nil, Options{})
	_, err := ing.Trends(context.Background(), ingest.Subject{Kind: ingest.KindTeam, Name: "Nowhere", Team: "XXX"})
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	slug, ok := Slug("ATH")
	require.True(t, ok)
	assert.Equal(t, "oakland-athletics", slug)

	slug, ok = Slug("cws")
	require.True(t, ok)
	assert.Equal(t, "chicago-white-sox", slug)
}
