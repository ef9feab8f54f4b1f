package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const responsiveSplits = `
<div class="ResponsiveTable">
  <div class="Table__Title">Batting Splits</div>
  <div class="flex">
    <table class="Table Table--fixed-left">
      <thead><tr><th>Split</th></tr></thead>
      <tbody>
        <tr><td>BREAKDOWN</td></tr>
        <tr><td>Home</td></tr>
        <tr><td>Away</td></tr>
      </tbody>
    </table>
    <div class="Table__ScrollerWrapper"><div class="Table__Scroller">
      <table class="Table">
        <thead><tr><th>AB</th><th>H</th><th>AVG</th></tr></thead>
        <tbody>
          <tr><th>AB</th><th>H</th><th>AVG</th></tr>
          <tr><td>10</td><td>3</td><td>.300</td></tr>
          <tr><td>12</td><td>6</td><td>.500</td></tr>
        </tbody>
      </table>
    </div></div>
  </div>
</div>`

func TestParseResponsiveZipsHalves(t *testing.T) {
	doc := mustDoc(t, responsiveSplits)
	tables, err := Locator{Selector: "div.ResponsiveTable", Parse: ParseResponsive}.Locate(doc)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	tbl := tables[0]
	assert.Equal(t, "Batting Splits", tbl.Title)
	assert.Equal(t, []string{"Split", "AB", "H", "AVG"}, tbl.Header)
	assert.Equal(t, [][]string{
		{"BREAKDOWN", "", "", ""},
		{"Home", "10", "3", ".300"},
		{"Away", "12", "6", ".500"},
	}, tbl.Rows)
}

func TestInnerTitleDoesNotLeakToNextTable(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<h2>Roster</h2>
		<div class="ResponsiveTable"><div class="Table__Title">Pitchers</div>
			<table><thead><tr><th>Name</th></tr></thead><tbody><tr><td>Shota Imanaga</td></tr></tbody></table></div>
		<div class="ResponsiveTable">
			<table><thead><tr><th>Name</th></tr></thead><tbody><tr><td>Pete Crow-Armstrong</td></tr></tbody></table></div>
	</body></html>`)

	tables, err := Locator{Selector: "div.ResponsiveTable", Policy: PolicyAll}.Locate(doc)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "Pitchers", tables[0].Title)
	assert.Equal(t, "Roster", tables[1].Title)
}

func TestParseResponsiveFeedsClassifier(t *testing.T) {
	doc := mustDoc(t, responsiveSplits)
	ex := &Extractor{
		Locator: Locator{Selector: "div.ResponsiveTable", Parse: ParseResponsive},
		Splits:  NewSplitSet(Category{Name: "BREAKDOWN", Labels: []string{"Home", "Away"}}),
		Schema:  simpleSchema,
	}
	rows, err := ex.Extract(doc)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{Category: "BREAKDOWN", Label: "Away", Values: []string{"12", "6", ".500"}}, rows[1])
}

func TestParseResponsiveFallsBack(t *testing.T) {
	doc := mustDoc(t, `<div class="ResponsiveTable"><table><tr><th>Split</th><th>AB</th></tr><tr><td>Home</td><td>4</td></tr></table></div>`)
	tbl := ParseResponsive(doc.Find("div.ResponsiveTable"))
	assert.Equal(t, []string{"Split", "AB"}, tbl.Header)
	assert.Equal(t, [][]string{{"Home", "4"}}, tbl.Rows)
}
