package extract

import "strings"

// FieldKind decides how a field is coerced and stored.
type FieldKind int

const (
	// FieldCount fields are coerced to numbers.
	FieldCount FieldKind = iota
	// FieldRatio fields (AVG, OPS, ERA...) keep their source text.
	FieldRatio
	// FieldText fields are free text.
	FieldText
)

// Field is one named column of an ExpectedSchema.
type Field struct {
	Name    string
	Column  string
	Kind    FieldKind
	Aliases []string
}

// Schema is the canonical, ordered set of stat fields for one category.
type Schema struct {
	Name    string
	Fields  []Field
	Default string
	// LabelColumns are the CSV headers written before the stat fields.
	LabelColumns []string
	// Defaults overrides Default per field name.
	Defaults map[string]string
}

func (s Schema) Len() int { return len(s.Fields) }

func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func (s Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Column
	}
	return cols
}

// DefaultFor returns the sentinel used when a field has no cell.
func (s Schema) DefaultFor(field string) string {
	if d, ok := s.Defaults[field]; ok {
		return d
	}
	if s.Default == "" {
		return NotAvailable
	}
	return s.Default
}

// DefaultVector is the full row used for splits the page never emitted.
func (s Schema) DefaultVector() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = s.DefaultFor(f.Name)
	}
	return out
}

// CSVHeader is the label columns followed by the field names.
func (s Schema) CSVHeader() []string {
	header := make([]string, 0, len(s.LabelColumns)+len(s.Fields))
	header = append(header, s.LabelColumns...)
	return append(header, s.Names()...)
}

// Field looks a field up by name or alias, case-insensitively.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.matches(name) {
			return f, true
		}
	}
	return Field{}, false
}

func (f Field) matches(name string) bool {
	name = strings.TrimSpace(name)
	if strings.EqualFold(f.Name, name) {
		return true
	}
	for _, a := range f.Aliases {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// Count declares a numeric field.
func Count(name, column string, aliases ...string) Field {
	return Field{Name: name, Column: column, Kind: FieldCount, Aliases: aliases}
}

// Ratio declares a field kept as text to avoid lossy formatting (".300").
func Ratio(name, column string, aliases ...string) Field {
	return Field{Name: name, Column: column, Kind: FieldRatio, Aliases: aliases}
}

// Text declares a free-text field.
func Text(name, column string, aliases ...string) Field {
	return Field{Name: name, Column: column, Kind: FieldText, Aliases: aliases}
}
