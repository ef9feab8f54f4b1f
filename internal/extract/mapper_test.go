package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapperOutputIsFixedWidth(t *testing.T) {
	m := NewMapper(simpleSchema, nil)
	require.False(t, m.Named())

	for n := 0; n <= 8; n++ {
		cells := []string{"Home"}
		for i := 0; i < n; i++ {
			cells = append(cells, fmt.Sprint(i))
		}
		t.Run(fmt.Sprintf("%d stat cells", n), func(t *testing.T) {
			out := m.Map(cells, 1)
			assert.Len(t, out, simpleSchema.Len())
		})
	}
}

func TestMapperPadsShortRows(t *testing.T) {
	m := NewMapper(simpleSchema, nil)
	assert.Equal(t, []string{"10", "N/A", "N/A"}, m.Map([]string{"Home", "10"}, 1))
	assert.Equal(t, []string{"N/A", "N/A", "N/A"}, m.Map(nil, 5))
}

func TestMapperResolvesByHeaderName(t *testing.T) {
	m := NewMapper(simpleSchema, []string{"Split", "AVG", "X", "AB", "H"})
	require.True(t, m.Named())

	out := m.Map([]string{"Home", ".310", "junk", "42", "13"}, 1)
	assert.Equal(t, []string{"42", "13", ".310"}, out)
}

func TestMapperFallsBackToPositionForUnknownHeaders(t *testing.T) {
	m := NewMapper(simpleSchema, []string{"", "c1", "c2", "c3"})
	require.False(t, m.Named())
	assert.Equal(t, []string{"1", "2", ".500"}, m.Map([]string{"Home", "1", "2", ".500", "extra"}, 1))
}

func TestMapperUnnamedFieldGetsSentinelOnceAnyNameResolves(t *testing.T) {
	m := NewMapper(simpleSchema, []string{"Split", "AB", "Hits?", "Avg."})
	require.True(t, m.Named())
	assert.Equal(t, []string{"10", "N/A", "N/A"}, m.Map([]string{"Home", "10", "3", ".300"}, 1))
}

func TestMapperAliasesAndPerFieldDefaults(t *testing.T) {
	schema := Schema{
		Fields:   []Field{Count("K", "strikeouts", "SO"), Ratio("AVG", "batting_avg")},
		Default:  Zero,
		Defaults: map[string]string{"AVG": ZeroAverage},
	}
	m := NewMapper(schema, []string{"PITCHER", "SO"})
	assert.Equal(t, []string{"7", ".000"}, m.Map([]string{"Cole", "7"}, 1))
}

func TestCoverKeepsConfiguredOrderAndExtras(t *testing.T) {
	splits := NewSplitSet(
		Category{Name: "BREAKDOWN", Labels: []string{"Home", "Away"}},
		Category{Name: "OPPONENT", Labels: []string{"vs. ARI"}},
	).WithPatterns(PrefixPattern("OPPONENT", "vs."))

	rows := []Row{
		{Category: "OPPONENT", Label: "vs. ATH", Values: []string{"1", "1", "1.000"}},
		{Category: "BREAKDOWN", Label: "Away", Values: []string{"3", "1", ".333"}},
		{Category: "BREAKDOWN", Label: "Away", Values: []string{"9", "9", "1.000"}},
	}
	out := Cover(simpleSchema, splits, rows)

	labels := make([]string, len(out))
	for i, r := range out {
		labels[i] = r.Label
	}
	assert.Equal(t, []string{"Home", "Away", "vs. ARI", "vs. ATH"}, labels)
	assert.Equal(t, []string{"3", "1", ".333"}, out[1].Values)
}
