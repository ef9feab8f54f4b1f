package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIsComplete(t *testing.T) {
	ids := make(map[int]bool)
	abbrs := make(map[string]bool)
	for _, team := range All() {
		ids[team.ESPNID] = true
		abbrs[team.Abbr] = true
	}
	assert.Len(t, ids, 30)
	assert.Len(t, abbrs, 30)
	assert.Len(t, OpponentLabels, 30)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CHC", "CHC"},
		{"cws", "CHW"},
		{"Chicago Cubs", "CHC"},
		{"chicago-white-sox", "CHW"},
		{"Blue Jays", "TOR"},
		{"Oakland Athletics", "ATH"},
		{"St Louis Cardinals", "STL"},
		{"Los Angeles Dodgers", "LAD"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			team, ok := Resolve(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, team.Abbr)
		})
	}
}

func TestResolveRejectsUnknown(t *testing.T) {
	_, ok := Resolve("Manchester United")
	assert.False(t, ok)
	_, ok = Resolve("")
	assert.False(t, ok)
}

func TestByESPNID(t *testing.T) {
	team, ok := ByESPNID(16)
	require.True(t, ok)
	assert.Equal(t, "chicago-cubs", team.Slug)

	_, ok = ByESPNID(99)
	assert.False(t, ok)
}
