package extract

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Row is a classified, fixed-width data row before normalization.
type Row struct {
	Category string
	Label    string
	Values   []string
}

// Extractor is the shared table-to-rows routine. Each scrape category
// configures it with a schema, a split set and the schema's default vector.
type Extractor struct {
	Locator Locator
	Splits  *SplitSet
	Schema  Schema

	NumericFirst bool
	LabelIndex   int
	// Strict skips rows whose width differs from the header.
	Strict bool
	// Coverage emits every configured split, filling unseen ones with defaults.
	Coverage bool
	// Prepare rewrites a table before classification (header renames, cell splits).
	Prepare func(*RawTable)

	Log logrus.FieldLogger
}

// Extract locates the tables in doc and returns their rows.
func (e *Extractor) Extract(doc *goquery.Document) ([]Row, error) {
	tables, err := e.Locator.Locate(doc)
	if err != nil {
		return nil, err
	}
	return e.Rows(tables), nil
}

// Rows classifies and maps the rows of already-located tables.
func (e *Extractor) Rows(tables []RawTable) []Row {
	log := e.logger()
	splits := e.Splits
	if splits == nil {
		splits = OpenSplitSet(e.Schema.Name)
	}

	var (
		rows    []Row
		pending []Label
		stats   [][]string
	)
	for _, t := range tables {
		if e.Prepare != nil {
			e.Prepare(&t)
		}
		mapper := NewMapper(e.Schema, t.Header)
		classifier := Classifier{
			Splits:       splits,
			NumericFirst: e.NumericFirst,
			LabelIndex:   e.LabelIndex,
			Header:       t.Header,
		}
		section := t.Title

		for _, cells := range t.Rows {
			c := classifier.Classify(cells)
			switch c.Kind {
			case RowCategoryHeader:
				section = c.Category
			case RowLabel:
				pending = append(pending, Label{Category: c.Category, Name: c.Label})
			case RowData:
				if e.Strict && len(t.Header) > 0 && len(cells) != len(t.Header) {
					log.WithError(&RowShapeError{Label: c.Label, Want: len(t.Header), Got: len(cells)}).
						Debug("[extract] skipping malformed row")
					continue
				}
				values := mapper.Map(cells, c.StatsStart)
				if c.Label == "" {
					stats = append(stats, values)
					continue
				}
				category := c.Category
				if splits.Open() && section != "" {
					category = section
				}
				rows = append(rows, Row{Category: category, Label: c.Label, Values: values})
			case RowTotals:
				log.WithField("label", c.Label).Debug("[extract] discarding totals row")
			case RowUnrecognized:
				log.WithField("cells", cells).Debug("[extract] skipping unrecognized row")
			}
		}
	}

	for i, l := range pending {
		if i >= len(stats) {
			break
		}
		rows = append(rows, Row{Category: l.Category, Label: l.Name, Values: stats[i]})
	}

	if e.Coverage {
		rows = Cover(e.Schema, splits, rows)
	}
	return rows
}

func (e *Extractor) logger() logrus.FieldLogger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}
