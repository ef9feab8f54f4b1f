package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/diamond/internal/batch"
	"github.com/fortuna/diamond/internal/config"
	"github.com/fortuna/diamond/internal/extract"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/ingest/espn"
	"github.com/fortuna/diamond/internal/service"
	"github.com/fortuna/diamond/internal/store/repository"
	"github.com/fortuna/diamond/internal/store/storetest"
)

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T) (*httptest.Server, *repository.RecordRepository) {
	db := storetest.New(t)

	registry := batch.NewRegistry()
	registry.Register("news", batch.ScopeTeams, func(context.Context, ingest.Subject) ([]ingest.Output, error) {
		return nil, nil
	})
	runner := batch.NewRunner(batch.RunnerOptions{Registry: registry, Log: quiet()})
	jobs := batch.NewService(db, batch.ServiceOptions{
		Runner:   runner,
		Registry: registry,
		Catalog:  config.Catalog{Teams: []string{"CHC", "NYY"}},
		Log:      quiet(),
	})

	handler := NewHandler(service.NewRecordService(db), service.NewHealthService(map[string]service.Checker{"database": db}))
	srv := NewServer("0", handler, NewScrapeHandler(jobs, registry.Names()), quiet())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, repository.NewRecordRepository(db)
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]interface{}{"database": "ok"}, body["dependencies"])
}

func TestGetRecords(t *testing.T) {
	ts, repo := newTestServer(t)
	rec := extract.Normalize(
		extract.Context{Sport: "MLB", Subject: "Chicago Cubs", Season: 2025, Source: "ESPN", CapturedAt: time.Now().UTC()},
		espn.NewsSchema,
		[]extract.Row{{Category: "Top Stories", Label: "Cubs win", Values: []string{"1d", "s", "l"}}},
	)[0]
	require.NoError(t, repo.Insert(context.Background(), espn.TableNews, rec))

	resp, err := http.Get(ts.URL + "/api/v1/records/news?subject=Chicago+Cubs&season=2025")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.EqualValues(t, 1, body["total"])
	rows := body["rows"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "Cubs win", rows[0].(map[string]interface{})["label"])
}

func TestGetRecordsErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/records/scrape_jobs")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/v1/records/news?limit=ten")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid limit", decode(t, resp)["error"])
}

func TestGetTables(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/records")
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Contains(t, body["tables"], "odds_data")
}

func TestScrapeLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/scrapes", "application/json", strings.NewReader(`{"job":"news","subjects":["Cubs"]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	job := decode(t, resp)["job"].(map[string]interface{})
	assert.Equal(t, "queued", job["status"])
	assert.Equal(t, "Queued", job["status_message"])
	id := job["job_id"].(string)

	resp, err = http.Get(ts.URL + "/api/v1/scrapes/status")
	require.NoError(t, err)
	status := decode(t, resp)
	assert.Equal(t, false, status["active"])
	assert.Len(t, status["recent_jobs"], 1)

	resp, err = http.Get(ts.URL + "/api/v1/scrapes/" + id)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode(t, resp)
	assert.Len(t, detail["events"], 1)

	resp, err = http.Get(ts.URL + "/api/v1/scrapes/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestScrapeRequestValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	for body, want := range map[string]int{
		`not json`:                             http.StatusBadRequest,
		`{}`:                                   http.StatusBadRequest,
		`{"job":"odds"}`:                       http.StatusBadRequest,
		`{"job":"news","subjects":["Padres"]}`: http.StatusBadRequest,
	} {
		resp, err := http.Post(ts.URL+"/api/v1/scrapes", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, body)
		resp.Body.Close()
	}
}

func TestJobNamesAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/scrapes/jobs")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"news"}, decode(t, resp)["jobs"])

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "diamond_active_jobs")
}

func TestCORSHeaders(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
