package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// ValueKind tags the concrete representation held by a Value.
type ValueKind int

const (
	KindRaw ValueKind = iota
	KindInt
	KindFloat
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "raw"
	}
}

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?\d*\.\d+$`)
)

// Value is a scraped cell after coercion: an integer, a float, or the raw text.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	raw  string
}

func IntValue(v int64) Value     { return Value{kind: KindInt, i: v} }
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }
func RawValue(s string) Value    { return Value{kind: KindRaw, raw: s} }

// Coerce converts purely numeric text to Int or Float and keeps anything else raw.
func Coerce(s string) Value {
	t := strings.TrimSpace(s)
	switch {
	case intPattern.MatchString(t):
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return IntValue(n)
		}
	case floatPattern.MatchString(t):
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return FloatValue(f)
		}
	}
	return RawValue(s)
}

// Coerce re-applies coercion. Int and Float values are returned unchanged.
func (v Value) Coerce() Value {
	if v.kind != KindRaw {
		return v
	}
	return Coerce(v.raw)
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return v.raw
	}
}

// Interface returns the Go value: int64, float64 or string.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	default:
		return v.raw
	}
}

// SQLValue returns the value bound for a datastore column of the given field kind.
// Sentinels in count columns become NULL.
func (v Value) SQLValue(kind FieldKind) interface{} {
	if kind == FieldCount && v.kind == KindRaw {
		return nil
	}
	return v.Interface()
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Coerce(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = RawValue(s)
	return nil
}
