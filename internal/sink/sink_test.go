package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/diamond/internal/extract"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/store/repository"
	"github.com/fortuna/diamond/internal/store/storetest"
)

var splitsSchema = extract.Schema{
	Name: "splits",
	Fields: []extract.Field{
		extract.Count("AB", "at_bats"),
		extract.Count("H", "hits"),
		extract.Ratio("AVG", "batting_avg"),
	},
	Default:      extract.NotAvailable,
	LabelColumns: []string{"Split Type", "Split Value"},
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func records(subject string, labels ...string) []extract.Record {
	ctx := extract.Context{Sport: "MLB", Subject: subject, Season: 2025, Source: "ESPN", CapturedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	var rows []extract.Row
	for _, l := range labels {
		rows = append(rows, extract.Row{Category: "BREAKDOWN", Label: l, Values: []string{"10", "3", ".300"}})
	}
	return extract.Normalize(ctx, splitsSchema, rows)
}

type flakyRepo struct {
	failOn   string
	inserted []string
}

func (r *flakyRepo) Insert(_ context.Context, _ string, rec extract.Record) error {
	if rec.Label == r.failOn {
		return errors.New("duplicate key")
	}
	r.inserted = append(r.inserted, rec.Label)
	return nil
}

func (r *flakyRepo) DeleteBySubject(context.Context, string, string) (int64, error) {
	return 0, errors.New("not supported")
}

func TestWriteContinuesAfterFailure(t *testing.T) {
	repo := &flakyRepo{failOn: "Away"}
	s := New(repo, quiet())

	res := s.Write(context.Background(), "player_splits", records("Shea Langeliers", "Home", "Away", "Day"))

	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"Home", "Day"}, repo.inserted)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Shea Langeliers/BREAKDOWN/Away", res.Errors[0].Key)
	assert.EqualError(t, errors.Unwrap(res.Errors[0]), "duplicate key")
}

// cancellingRepo cancels the write after the first insert.
type cancellingRepo struct {
	flakyRepo
	cancel context.CancelFunc
}

func (r *cancellingRepo) Insert(ctx context.Context, table string, rec extract.Record) error {
	defer r.cancel()
	return r.flakyRepo.Insert(ctx, table, rec)
}

func TestWriteCountsRecordsLeftByCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo := &cancellingRepo{cancel: cancel}
	s := New(repo, quiet())

	res := s.Write(ctx, "player_splits", records("Shea Langeliers", "Home", "Away", "Day"))

	assert.Equal(t, []string{"Home"}, repo.inserted)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Failed)
	assert.Empty(t, res.Errors)
}

func TestReplaceSurfacesDeleteFailure(t *testing.T) {
	s := New(&flakyRepo{}, quiet())
	_, err := s.Replace(context.Background(), "roster_data", "Chicago Cubs", records("Chicago Cubs", "Home"))
	assert.Error(t, err)
}

func TestPersistReplacesByKey(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRecordRepository(storetest.New(t))
	s := New(repo, quiet())

	first := []ingest.Output{
		{Table: "player_splits", Category: "splits", Schema: splitsSchema, Records: records("Chicago Cubs", "Home", "Away"), ReplaceKey: "Chicago Cubs"},
		{Table: "player_splits", Category: "splits", Schema: splitsSchema, Records: records("Athletics", "Home")},
	}
	res, err := s.Persist(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)

	second := []ingest.Output{
		{Table: "player_splits", Category: "splits", Schema: splitsSchema, Records: records("Chicago Cubs", "Night"), ReplaceKey: "Chicago Cubs"},
		{Table: "player_splits", Category: "splits"},
	}
	res, err = s.Persist(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	cubs, err := repo.List(ctx, "player_splits", repository.Filter{Subject: "Chicago Cubs"})
	require.NoError(t, err)
	require.Len(t, cubs, 1)
	assert.Equal(t, "Night", cubs[0]["label"])

	total, err := repo.Count(ctx, "player_splits", repository.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestCSVWriter(t *testing.T) {
	dir := t.TempDir()
	w := CSVWriter{Dir: dir}
	out := ingest.Output{Table: "player_splits", Category: "splits", Schema: splitsSchema, Records: records("Shea Langeliers", "Home", "Away")}

	path, err := w.Write("Shea Langeliers", out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "shea_langeliers", "shea_langeliers_splits.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	lines, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Split Type", "Split Value", "AB", "H", "AVG"},
		{"BREAKDOWN", "Home", "10", "3", ".300"},
		{"BREAKDOWN", "Away", "10", "3", ".300"},
	}, lines)
}

func TestCSVWriterSkipsEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	path, err := CSVWriter{Dir: dir}.Write("Shea Langeliers", ingest.Output{Category: "splits", Schema: splitsSchema})
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCellsSingleLabelColumn(t *testing.T) {
	schema := splitsSchema
	schema.LabelColumns = []string{"SEASON"}
	rec := records("Shea Langeliers", "2025")[0]

	assert.Equal(t, []string{"SEASON", "AB", "H", "AVG"}, Header(schema))
	assert.Equal(t, []string{"2025", "10", "3", ".300"}, Cells(schema, rec))
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, "Shea Langeliers splits", ingest.Output{Schema: splitsSchema, Records: records("Shea Langeliers", "Home")})

	assert.Contains(t, buf.String(), "BREAKDOWN")
	assert.Contains(t, buf.String(), "Home")
	assert.Contains(t, buf.String(), ".300")
}
