package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RawTable is one parsed markup table. Rows may be wider or narrower than
// the header.
type RawTable struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Width is the header width, or the widest row when there is no header.
func (t RawTable) Width() int {
	if len(t.Header) > 0 {
		return len(t.Header)
	}
	w := 0
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

func (t RawTable) contains(token string) bool {
	for _, h := range t.Header {
		if h == token {
			return true
		}
	}
	for _, r := range t.Rows {
		for _, c := range r {
			if c == token {
				return true
			}
		}
	}
	return false
}

// ParseTable reads the header (last thead row, else the first all-th row)
// and the body rows of a table or a wrapper element containing one.
func ParseTable(sel *goquery.Selection) RawTable {
	var t RawTable

	head := sel.Find("thead tr").Last()
	if head.Length() == 0 {
		sel.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			if tr.ChildrenFiltered("td").Length() == 0 && tr.ChildrenFiltered("th").Length() > 0 {
				head = tr
				return false
			}
			return true
		})
	}
	head.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
		t.Header = append(t.Header, CellText(cell))
	})

	body := sel.Find("tbody tr")
	if body.Length() == 0 {
		body = sel.Find("tr")
	}
	body.Each(func(_ int, tr *goquery.Selection) {
		if tr.ChildrenFiltered("td").Length() == 0 {
			return
		}
		var row []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, CellText(cell))
		})
		t.Rows = append(t.Rows, row)
	})
	return t
}

// ParseResponsive reads a responsive wrapper whose label column lives in
// a fixed-left table and whose stats live in a scrolling table, zipping
// the two row by row. Scroller rows that repeat its header are blanked so
// the label beside them reads as a section header. Wrappers without both
// halves are parsed with ParseTable.
func ParseResponsive(sel *goquery.Selection) RawTable {
	fixed := sel.Find("table.Table--fixed-left").First()
	scroll := sel.Find(".Table__Scroller table").First()
	if fixed.Length() == 0 || scroll.Length() == 0 {
		return ParseTable(sel)
	}

	left, right := ParseTable(fixed), ParseTable(scroll)
	leftRows, rightRows := allRows(fixed), allRows(scroll)

	t := RawTable{Header: append(append([]string{}, left.Header...), right.Header...)}
	n := len(leftRows)
	if len(rightRows) > n {
		n = len(rightRows)
	}
	for i := 0; i < n; i++ {
		var l, r []string
		if i < len(leftRows) {
			l = leftRows[i]
		}
		if i < len(rightRows) {
			r = rightRows[i]
			if len(right.Header) > 0 && sameCells(r, right.Header) {
				r = make([]string, len(r))
			}
		}
		row := make([]string, 0, len(l)+len(r))
		t.Rows = append(t.Rows, append(append(row, l...), r...))
	}
	return t
}

// allRows returns every body row, including th-only section rows.
func allRows(table *goquery.Selection) [][]string {
	body := table.Find("tbody tr")
	if body.Length() == 0 {
		if all := table.Find("tr"); all.Length() > 1 {
			body = all.Slice(1, goquery.ToEnd)
		}
	}
	var rows [][]string
	body.Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, CellText(cell))
		})
		rows = append(rows, row)
	})
	return rows
}

// CellText is the cell's text with whitespace runs collapsed.
func CellText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// Policy selects among several matching tables.
type Policy int

const (
	// PolicyFirst keeps the first matching table.
	PolicyFirst Policy = iota
	// PolicyRichest keeps the table with the most expected headers.
	PolicyRichest
	// PolicyAll keeps every matching table in document order.
	PolicyAll
)

const defaultTitleSelector = ".Table__Title, h2, h3"

// Locator finds the data table(s) on a page.
type Locator struct {
	// Selector picks candidate elements; defaults to "table".
	Selector string
	// TitleSelector picks the headings that name the following table.
	TitleSelector string
	// Required tokens must all appear as whole cells ("HR", "OBA").
	Required []string
	// Expected headers rank candidates under PolicyRichest.
	Expected []string
	Policy   Policy
	// Parse reads one candidate; defaults to ParseTable.
	Parse func(*goquery.Selection) RawTable
}

// Locate returns the matching tables, or ErrTableNotFound.
func (l Locator) Locate(doc *goquery.Document) ([]RawTable, error) {
	selector := l.Selector
	if selector == "" {
		selector = "table"
	}
	titleSel := l.TitleSelector
	if titleSel == "" {
		titleSel = defaultTitleSelector
	}

	parse := l.Parse
	if parse == nil {
		parse = ParseTable
	}

	var found []RawTable
	current := ""
	doc.Find(selector + ", " + titleSel).Each(func(_ int, s *goquery.Selection) {
		if !s.Is(selector) {
			// A candidate's own title names only that candidate.
			if s.ParentsFiltered(selector).Length() == 0 {
				current = CellText(s)
			}
			return
		}
		t := parse(s)
		t.Title = current
		if inner := s.Find(titleSel).First(); inner.Length() > 0 {
			t.Title = CellText(inner)
		}
		if len(t.Rows) == 0 && len(t.Header) == 0 {
			return
		}
		if l.matches(t) {
			found = append(found, t)
		}
	})

	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, l.describe(selector))
	}

	switch l.Policy {
	case PolicyAll:
		return found, nil
	case PolicyRichest:
		return []RawTable{l.richest(found)}, nil
	default:
		return found[:1], nil
	}
}

func (l Locator) matches(t RawTable) bool {
	for _, token := range l.Required {
		if !t.contains(token) {
			return false
		}
	}
	return true
}

func (l Locator) richest(tables []RawTable) RawTable {
	best, bestScore, bestWidth := 0, -1, -1
	for i, t := range tables {
		score := 0
		for _, want := range l.Expected {
			for _, h := range t.Header {
				if strings.EqualFold(h, want) {
					score++
					break
				}
			}
		}
		if score > bestScore || (score == bestScore && t.Width() > bestWidth) {
			best, bestScore, bestWidth = i, score, t.Width()
		}
	}
	return tables[best]
}

func (l Locator) describe(selector string) string {
	if len(l.Required) == 0 {
		return fmt.Sprintf("selector %q", selector)
	}
	return fmt.Sprintf("selector %q with headers %s", selector, strings.Join(l.Required, ","))
}
