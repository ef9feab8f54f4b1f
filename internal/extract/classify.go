package extract

import "strings"

// RowKind is the outcome of classifying one table row.
type RowKind int

const (
	RowUnrecognized RowKind = iota
	RowEmpty
	RowHeaderRepeat
	RowCategoryHeader
	// RowLabel is a label-only row whose stats arrive in a later numeric row.
	RowLabel
	RowData
	RowTotals
)

func (k RowKind) String() string {
	switch k {
	case RowEmpty:
		return "empty"
	case RowHeaderRepeat:
		return "header"
	case RowCategoryHeader:
		return "category"
	case RowLabel:
		return "label"
	case RowData:
		return "data"
	case RowTotals:
		return "totals"
	default:
		return "unrecognized"
	}
}

// Classification describes a row. StatsStart indexes the first stat cell.
type Classification struct {
	Kind       RowKind
	Category   string
	Label      string
	StatsStart int
}

// Classifier sorts rows into headers, splits, totals and noise.
type Classifier struct {
	Splits *SplitSet
	// NumericFirst treats rows whose first cell is all digits as stats rows
	// paired, in order, with preceding label-only rows.
	NumericFirst bool
	// LabelIndex is the label cell for open split sets.
	LabelIndex int
	Header     []string
}

func (c Classifier) Classify(cells []string) Classification {
	nonEmpty, only := 0, ""
	for _, cell := range cells {
		if cell != "" {
			nonEmpty++
			only = cell
		}
	}
	if nonEmpty == 0 {
		return Classification{Kind: RowEmpty}
	}
	if len(c.Header) > 0 && sameCells(cells, c.Header) {
		return Classification{Kind: RowHeaderRepeat}
	}

	first, second := cellAt(cells, 0), cellAt(cells, 1)
	if isTotals(first) || (first == "" && isTotals(second)) {
		label := first
		if label == "" {
			label = second
		}
		return Classification{Kind: RowTotals, Label: label}
	}

	if nonEmpty == 1 {
		if c.Splits.IsCategory(only) && !(c.NumericFirst && c.Splits.exactLabel(only)) {
			return Classification{Kind: RowCategoryHeader, Category: only}
		}
		if c.NumericFirst && c.Splits.exact(only) {
			cat, _ := c.Splits.Match(only)
			return Classification{Kind: RowLabel, Category: cat, Label: only}
		}
		if c.Splits.Open() && len(cells) == 1 {
			return Classification{Kind: RowCategoryHeader, Category: only}
		}
	}

	if c.NumericFirst && isDigits(first) && len(cells) > 1 {
		return Classification{Kind: RowData}
	}

	if c.Splits.Open() {
		return c.classifyOpen(cells)
	}
	return c.classifyClosed(first, second, len(cells))
}

func (c Classifier) classifyOpen(cells []string) Classification {
	idx := c.LabelIndex
	label := cellAt(cells, idx)
	if label == "" && idx == 0 && len(cells) > 1 {
		idx, label = 1, cellAt(cells, 1)
	}
	if label == "" {
		return Classification{Kind: RowUnrecognized}
	}
	cat, _ := c.Splits.Match(label)
	return Classification{Kind: RowData, Category: cat, Label: label, StatsStart: idx + 1}
}

func (c Classifier) classifyClosed(first, second string, width int) Classification {
	switch {
	case c.Splits.exact(first):
		cat, _ := c.Splits.Match(first)
		return Classification{Kind: RowData, Category: cat, Label: first, StatsStart: 1}
	case first == "" && width > 1 && c.Splits.exact(second):
		cat, _ := c.Splits.Match(second)
		return Classification{Kind: RowData, Category: cat, Label: second, StatsStart: 2}
	}
	if width < 2 {
		return Classification{Kind: RowUnrecognized}
	}
	if cat, ok := c.Splits.Match(first); ok {
		return Classification{Kind: RowData, Category: cat, Label: first, StatsStart: 1}
	}
	if first == "" {
		if cat, ok := c.Splits.Match(second); ok {
			return Classification{Kind: RowData, Category: cat, Label: second, StatsStart: 2}
		}
	}
	return Classification{Kind: RowUnrecognized, Label: first}
}

func (s *SplitSet) exactLabel(text string) bool {
	_, ok := s.byLabel[text]
	return ok
}

func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

func isTotals(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "totals")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sameCells(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(strings.TrimSpace(a[i]), strings.TrimSpace(b[i])) {
			return false
		}
	}
	return true
}
