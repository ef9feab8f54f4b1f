package extract

import (
	"fmt"
	"strings"
	"time"
)

// Context identifies where and when a record was scraped.
type Context struct {
	Sport      string    `json:"sport"`
	Subject    string    `json:"subject"`
	SubjectID  string    `json:"subject_id,omitempty"`
	Team       string    `json:"team,omitempty"`
	Season     int       `json:"season,omitempty"`
	Source     string    `json:"source"`
	CapturedAt time.Time `json:"captured_at"`
}

// Stat is one coerced field of a record.
type Stat struct {
	Field Field
	Value Value
}

// Record is a normalized, immutable output row.
type Record struct {
	Context
	Category string
	Label    string
	Stats    []Stat
}

// Normalize attaches ctx to every row and coerces each field by kind.
func Normalize(ctx Context, schema Schema, rows []Row) []Record {
	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec := Record{
			Context:  ctx,
			Category: r.Category,
			Label:    r.Label,
			Stats:    make([]Stat, len(schema.Fields)),
		}
		for i, f := range schema.Fields {
			raw := ""
			if i < len(r.Values) {
				raw = r.Values[i]
			}
			rec.Stats[i] = Stat{Field: f, Value: NormalizeField(f, raw)}
		}
		records = append(records, rec)
	}
	return records
}

// NormalizeField coerces count fields; ratio and text fields keep their text.
func NormalizeField(f Field, raw string) Value {
	if f.Kind == FieldCount {
		return Coerce(raw)
	}
	return RawValue(raw)
}

// Value returns the stat named name.
func (r Record) Value(name string) (Value, bool) {
	for _, s := range r.Stats {
		if s.Field.matches(name) {
			return s.Value, true
		}
	}
	return Value{}, false
}

// Key identifies the record in logs.
func (r Record) Key() string {
	parts := []string{r.Subject}
	if r.Category != "" {
		parts = append(parts, r.Category)
	}
	parts = append(parts, r.Label)
	return strings.Join(parts, "/")
}

// Strings renders the stat values as text in schema order.
func (r Record) Strings() []string {
	out := make([]string, len(r.Stats))
	for i, s := range r.Stats {
		out[i] = s.Value.String()
	}
	return out
}

// Map is the record as a flat column map, used for JSON payloads.
func (r Record) Map() map[string]interface{} {
	m := map[string]interface{}{
		"sport":       r.Sport,
		"subject":     r.Subject,
		"team":        r.Team,
		"season":      r.Season,
		"source":      r.Source,
		"captured_at": r.CapturedAt.Format(time.RFC3339),
		"category":    r.Category,
		"label":       r.Label,
	}
	if r.SubjectID != "" {
		m["subject_id"] = r.SubjectID
	}
	for _, s := range r.Stats {
		m[s.Field.Column] = s.Value.Interface()
	}
	return m
}

func (r Record) String() string {
	return fmt.Sprintf("%s %v", r.Key(), r.Strings())
}
