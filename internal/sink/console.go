package sink

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/fortuna/diamond/internal/ingest"
)

// Print renders out as a grid, the way the scrape CLI echoes what it stored.
func Print(w io.Writer, title string, out ingest.Output) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)

	header := table.Row{}
	for _, h := range Header(out.Schema) {
		header = append(header, h)
	}
	t.AppendHeader(header)

	for _, rec := range out.Records {
		row := table.Row{}
		for _, c := range Cells(out.Schema, rec) {
			row = append(row, c)
		}
		t.AppendRow(row)
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
