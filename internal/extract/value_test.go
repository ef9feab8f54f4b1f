package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   string
		kind ValueKind
		str  string
	}{
		{"42", KindInt, "42"},
		{" -7 ", KindInt, "-7"},
		{".312", KindFloat, "0.312"},
		{"-1.5", KindFloat, "-1.5"},
		{"N/A", KindRaw, "N/A"},
		{"3-2", KindRaw, "3-2"},
		{"0.0-0.0", KindRaw, "0.0-0.0"},
		{"1.", KindRaw, "1."},
		{"", KindRaw, ""},
		{"99999999999999999999", KindRaw, "99999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v := Coerce(tt.in)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.str, v.String())
		})
	}
}

func TestCoerceIsIdempotent(t *testing.T) {
	for _, in := range []string{"42", "-0", ".300", "12.25", "N/A", "W 4-2", "", "1e3"} {
		once := Coerce(in)
		twice := once.Coerce()
		assert.Equal(t, once, twice, in)
		assert.Equal(t, once.Kind(), Coerce(once.String()).Kind(), in)
	}
}

func TestSQLValueNullsSentinelsInCountColumns(t *testing.T) {
	assert.Nil(t, RawValue("N/A").SQLValue(FieldCount))
	assert.Equal(t, "N/A", RawValue("N/A").SQLValue(FieldText))
	assert.Equal(t, int64(3), IntValue(3).SQLValue(FieldCount))
}

func TestValueJSON(t *testing.T) {
	b, err := FloatValue(0.25).MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, "0.25", string(b))

	var v Value
	assert.NoError(t, v.UnmarshalJSON([]byte(`".300"`)))
	assert.Equal(t, RawValue(".300"), v)
	assert.NoError(t, v.UnmarshalJSON([]byte(`17`)))
	assert.Equal(t, IntValue(17), v)
}
