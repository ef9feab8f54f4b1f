package extract

import "strings"

// Sentinels used to keep output rows fixed-width.
const (
	NotAvailable = "N/A"
	Zero         = "0"
	ZeroAverage  = ".000"
)

// Mapper resolves schema fields to cells. With a usable header it looks
// fields up by name; otherwise it maps the cells after the label by position.
type Mapper struct {
	schema Schema
	index  []int
}

// NewMapper builds the header-name index once per table. A header that
// resolves none of the schema fields is treated as absent.
func NewMapper(schema Schema, header []string) *Mapper {
	m := &Mapper{schema: schema}
	if len(header) == 0 {
		return m
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}

	index := make([]int, len(schema.Fields))
	resolved := 0
	for i, f := range schema.Fields {
		index[i] = -1
		for _, name := range append([]string{f.Name}, f.Aliases...) {
			if col, ok := cols[strings.ToUpper(name)]; ok {
				index[i] = col
				resolved++
				break
			}
		}
	}
	if resolved > 0 {
		m.index = index
	}
	return m
}

// Named reports whether fields are resolved through the header.
func (m *Mapper) Named() bool { return m.index != nil }

// Map returns exactly Schema.Len() values. Extra cells are dropped; missing
// or blank cells get the field's sentinel.
func (m *Mapper) Map(cells []string, start int) []string {
	out := make([]string, len(m.schema.Fields))
	for i, f := range m.schema.Fields {
		col := start + i
		if m.index != nil {
			col = m.index[i]
		}
		if col >= 0 && col < len(cells) && cells[col] != "" {
			out[i] = cells[col]
			continue
		}
		out[i] = m.schema.DefaultFor(f.Name)
	}
	return out
}

// Cover returns one row per configured split in configured order, filling
// unseen splits with the default vector. The first row seen for a label
// wins. Labels outside the configured list follow their category's labels.
func Cover(schema Schema, splits *SplitSet, rows []Row) []Row {
	type key struct{ category, label string }
	seen := make(map[string]Row, len(rows))
	var extras []Row
	extraSeen := make(map[key]bool)
	configured := make(map[string]bool)
	for _, l := range splits.Labels() {
		configured[l.Name] = true
	}

	for _, r := range rows {
		if configured[r.Label] {
			if _, dup := seen[r.Label]; !dup {
				seen[r.Label] = r
			}
			continue
		}
		k := key{r.Category, r.Label}
		if !extraSeen[k] {
			extraSeen[k] = true
			extras = append(extras, r)
		}
	}

	out := make([]Row, 0, len(configured)+len(extras))
	placed := make([]bool, len(extras))
	for _, c := range splits.Categories() {
		for _, l := range c.Labels {
			if r, ok := seen[l]; ok {
				r.Category = c.Name
				out = append(out, r)
				continue
			}
			out = append(out, Row{Category: c.Name, Label: l, Values: schema.DefaultVector()})
		}
		for i, r := range extras {
			if !placed[i] && r.Category == c.Name {
				placed[i] = true
				out = append(out, r)
			}
		}
	}
	for i, r := range extras {
		if !placed[i] {
			out = append(out, r)
		}
	}
	return out
}
