package odds

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
	"github.com/fortuna/diamond/internal/ingest"
)

var league = ingest.Subject{Kind: ingest.KindLeague, Name: "MLB"}

func newTestIngester(t *testing.T, handler http.HandlerFunc, key string) *Ingester {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	ing := NewIngester(Options{
		Fetcher: ingest.NewFetcher(ingest.Options{Source: "odds", Policy: config.SourcePolicy{Timeout: 2 * time.Second}, Log: log}),
		BaseURL: srv.URL,
		APIKey:  key,
		Season:  2025,
		Log:     log,
	})
	ing.now = func() time.Time { return time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC) }
	return ing
}

const board = `[
	{"id": "a1", "commence_time": "2025-06-01T18:20:00Z", "home_team": "Chicago Cubs", "away_team": "Cincinnati Reds",
	 "bookmakers": [{"key": "draftkings", "title": "DraftKings", "markets": [{"key": "h2h", "outcomes": [
		{"name": "Chicago Cubs", "price": -150},
		{"name": "Cincinnati Reds", "price": 130}
	 ]}]}]},
	{"id": "b2", "commence_time": "2025-06-01T20:10:00Z", "home_team": "Athletics", "away_team": "Los Angeles Dodgers",
	 "bookmakers": []},
	{"id": "c3", "commence_time": "2025-06-01T23:05:00Z", "home_team": "Boston Red Sox", "away_team": "New York Yankees",
	 "bookmakers": [{"key": "fanduel", "title": "FanDuel", "markets": [{"key": "h2h", "outcomes": [
		{"name": "Boston Red Sox", "price": 105}
	 ]}]}]}
]`

func TestOddsSkipsGamesWithoutPrices(t *testing.T) {
	var query string
	ing := newTestIngester(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sports/baseball_mlb/odds/", r.URL.Path)
		query = r.URL.RawQuery
		fmt.Fprint(w, board)
	}, "secret")

	outs, err := ing.Odds(context.Background(), league)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	out := outs[0]

	assert.Contains(t, query, "apiKey=secret")
	assert.Contains(t, query, "markets=h2h")
	assert.Equal(t, Table, out.Table)
	require.Len(t, out.Records, 1)

	rec := out.Records[0]
	assert.Equal(t, "Cincinnati Reds @ Chicago Cubs", rec.Label)
	assert.Equal(t, "h2h", rec.Category)

	home, _ := rec.Value("Home Odds")
	away, _ := rec.Value("Away Odds")
	homeAbbr, _ := rec.Value("Home Abbr")
	book, _ := rec.Value("Bookmaker")
	date, _ := rec.Value("Game Date")
	assert.Equal(t, int64(-150), home.Interface())
	assert.Equal(t, int64(130), away.Interface())
	assert.Equal(t, "CHC", homeAbbr.String())
	assert.Equal(t, "DraftKings", book.String())
	assert.Equal(t, "2025-06-01", date.String())
}

func TestOddsGameWithoutBookmakersYieldsNothing(t *testing.T) {
	ing := newTestIngester(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": "x", "home_team": "Athletics", "away_team": "Los Angeles Dodgers"}]`)
	}, "secret")

	outs, err := ing.Odds(context.Background(), league)
	assert.NoError(t, err)
	assert.Empty(t, outs)
}

func TestOddsFetchFailure(t *testing.T) {
	ing := newTestIngester(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "bad")

	outs, err := ing.Odds(context.Background(), league)
	assert.NoError(t, err)
	assert.Nil(t, outs)
}

func TestOddsRequiresKey(t *testing.T) {
	ing := newTestIngester(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, "")

	_, err := ing.Odds(context.Background(), league)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
