package extract

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

var simpleSchema = Schema{
	Name:         "simple",
	Fields:       []Field{Count("AB", "at_bats"), Count("H", "hits"), Ratio("AVG", "batting_avg")},
	Default:      NotAvailable,
	LabelColumns: []string{"Split"},
}

func TestExtractHomeAwayWithTotals(t *testing.T) {
	doc := mustDoc(t, `
		<table class="Table">
			<thead><tr><th>Split</th><th>AB</th><th>H</th><th>AVG</th></tr></thead>
			<tbody>
				<tr><td>Home</td><td>10</td><td>3</td><td>.300</td></tr>
				<tr><td>Totals</td><td>50</td><td>15</td><td>.300</td></tr>
			</tbody>
		</table>`)

	ex := &Extractor{
		Locator:  Locator{Selector: "table.Table"},
		Splits:   NewSplitSet(Category{Name: "SPLITS", Labels: []string{"Home", "Away"}}),
		Schema:   simpleSchema,
		Coverage: true,
	}
	rows, err := ex.Extract(doc)
	require.NoError(t, err)

	records := Normalize(Context{Subject: "Test Player", Season: 2025}, simpleSchema, rows)
	require.Len(t, records, 2)

	got := make([][]interface{}, 0, len(records))
	for _, r := range records {
		line := []interface{}{r.Label}
		for _, s := range r.Stats {
			line = append(line, s.Value.Interface())
		}
		got = append(got, line)
	}
	want := [][]interface{}{
		{"Home", int64(10), int64(3), ".300"},
		{"Away", "N/A", "N/A", "N/A"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractCoverageWithNothingObserved(t *testing.T) {
	splits := NewSplitSet(
		Category{Name: "BREAKDOWN", Labels: []string{"Home", "Away", "Day"}},
		Category{Name: "MONTH", Labels: []string{"April"}},
	)
	ex := &Extractor{Splits: splits, Schema: simpleSchema, Coverage: true}

	rows := ex.Rows([]RawTable{{Rows: [][]string{{"junk", "1"}}}})
	require.Len(t, rows, 4)
	for i, label := range []string{"Home", "Away", "Day", "April"} {
		assert.Equal(t, label, rows[i].Label)
		assert.Equal(t, simpleSchema.DefaultVector(), rows[i].Values)
	}
	assert.Equal(t, "MONTH", rows[3].Category)
}

func TestExtractNeverEmitsTotals(t *testing.T) {
	ex := &Extractor{
		Splits: OpenSplitSet("pitchers"),
		Schema: simpleSchema,
	}
	rows := ex.Rows([]RawTable{{
		Rows: [][]string{
			{"Zack Wheeler", "12", "4", ".333"},
			{"TOTALS", "40", "10", ".250"},
			{"", "totals", "40", "10"},
		},
	}})
	require.Len(t, rows, 1)
	assert.Equal(t, "Zack Wheeler", rows[0].Label)
}

func TestExtractSecondCellLabelWhenFirstBlank(t *testing.T) {
	ex := &Extractor{
		Splits: NewSplitSet(Category{Name: "BREAKDOWN", Labels: []string{"vs. Left"}}),
		Schema: simpleSchema,
	}
	rows := ex.Rows([]RawTable{{Rows: [][]string{{"", "vs. Left", "20", "5", ".250"}}}})
	require.Len(t, rows, 1)
	assert.Equal(t, "vs. Left", rows[0].Label)
	assert.Equal(t, []string{"20", "5", ".250"}, rows[0].Values)
}

func TestExtractPairsLabelRowsWithNumericRows(t *testing.T) {
	ex := &Extractor{
		Splits:       NewSplitSet(Category{Name: "SPLITS", Labels: []string{"Total", "Home", "Away"}}),
		Schema:       simpleSchema,
		NumericFirst: true,
		Coverage:     true,
	}
	labels := RawTable{Rows: [][]string{{"Total"}, {"Home"}}}
	stats := RawTable{Rows: [][]string{{"30", "9", ".300"}, {"12", "2"}}}

	rows := ex.Rows([]RawTable{labels, stats})
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"30", "9", ".300"}, rows[0].Values)
	assert.Equal(t, []string{"12", "2", "N/A"}, rows[1].Values)
	assert.Equal(t, "Away", rows[2].Label)
	assert.Equal(t, simpleSchema.DefaultVector(), rows[2].Values)
}

func TestExtractStrictSkipsMisshapenRows(t *testing.T) {
	ex := &Extractor{
		Splits: OpenSplitSet("BATTING"),
		Schema: simpleSchema,
		Strict: true,
	}
	rows := ex.Rows([]RawTable{{
		Header: []string{"Split", "AB", "H", "AVG"},
		Rows: [][]string{
			{"Home", "10", "3", ".300"},
			{"Away", "10"},
		},
	}})
	require.Len(t, rows, 1)
	assert.Equal(t, "Home", rows[0].Label)
	assert.Equal(t, "BATTING", rows[0].Category)
}

func TestExtractUsesTableTitleAsCategory(t *testing.T) {
	doc := mustDoc(t, `
		<div class="Table__Title">Home/Away</div>
		<table><thead><tr><th>Split</th><th>AB</th></tr></thead>
		<tbody><tr><td>Home</td><td>5</td></tr></tbody></table>
		<h2>Month</h2>
		<table><thead><tr><th>Split</th><th>AB</th></tr></thead>
		<tbody><tr><td>April</td><td>7</td></tr></tbody></table>`)

	ex := &Extractor{
		Locator: Locator{Policy: PolicyAll},
		Splits:  OpenSplitSet("team"),
		Schema:  simpleSchema,
	}
	rows, err := ex.Extract(doc)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Home/Away", rows[0].Category)
	assert.Equal(t, "Month", rows[1].Category)
	assert.Equal(t, []string{"5", "N/A", "N/A"}, rows[0].Values)
}

func TestLocateTableNotFound(t *testing.T) {
	doc := mustDoc(t, `<table><tr><th>Name</th></tr><tr><td>x</td></tr></table>`)

	_, err := Locator{Required: []string{"HR", "OBA"}}.Locate(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestLocateRequiredTokensAndRichest(t *testing.T) {
	doc := mustDoc(t, `
		<table id="a"><thead><tr><th>GP</th><th>HR</th></tr></thead><tbody><tr><td>1</td><td>2</td></tr></tbody></table>
		<table id="b"><thead><tr><th>GP</th><th>HR</th><th>OBA</th><th>ERA</th></tr></thead><tbody><tr><td>1</td><td>2</td><td>.2</td><td>3</td></tr></tbody></table>`)

	tables, err := Locator{Required: []string{"HR", "OBA"}}.Locate(doc)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"GP", "HR", "OBA", "ERA"}, tables[0].Header)

	tables, err = Locator{Expected: []string{"GP", "HR", "ERA"}, Policy: PolicyRichest}.Locate(doc)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Len(t, tables[0].Header, 4)
}

func TestNormalizeAttachesContext(t *testing.T) {
	captured := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := Context{Sport: "MLB", Subject: "Seiya Suzuki", SubjectID: "33039", Team: "chicago-cubs", Season: 2025, Source: "espn", CapturedAt: captured}

	records := Normalize(ctx, simpleSchema, []Row{{Category: "BREAKDOWN", Label: "Home", Values: []string{"4", "1", ".250"}}})
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, ctx, rec.Context)
	assert.Equal(t, "Seiya Suzuki/BREAKDOWN/Home", rec.Key())

	v, ok := rec.Value("avg")
	require.True(t, ok)
	assert.Equal(t, KindRaw, v.Kind())
	assert.Equal(t, int64(4), rec.Map()["at_bats"])
}
