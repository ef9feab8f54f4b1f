package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/diamond/internal/batch"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/ingest/espn"
	"github.com/fortuna/diamond/internal/ingest/odds"
	"github.com/fortuna/diamond/internal/ingest/teamrankings"
)

func TestCategoriesMatchRegistry(t *testing.T) {
	reg := batch.DefaultRegistry(batch.Sources{
		ESPN:         &espn.Ingester{},
		Odds:         &odds.Ingester{},
		TeamRankings: &teamrankings.Ingester{},
	})

	var names []string
	for _, c := range categories {
		def, err := reg.Lookup(c.name)
		require.NoError(t, err, c.name)
		assert.Equal(t, def.Scope, c.scope, c.name)
		names = append(names, c.name)
	}
	assert.ElementsMatch(t, reg.Names(), names)
}

func TestSubjectsFromArgs(t *testing.T) {
	t.Cleanup(func() { playerFlags.team, playerFlags.role = "", "" })

	subjects, err := subjectsFromArgs(batch.ScopeBatters, nil)
	require.NoError(t, err)
	assert.Nil(t, subjects)

	playerFlags.team = "nyy"
	subjects, err = subjectsFromArgs(batch.ScopeBatters, []string{"33192", "Aaron Judge"})
	require.NoError(t, err)
	assert.Equal(t, []ingest.Subject{{Kind: ingest.KindPlayer, ID: "33192", Name: "Aaron Judge", Team: "NYY", Role: "batter"}}, subjects)

	playerFlags.team = ""
	subjects, err = subjectsFromArgs(batch.ScopePitchers, []string{"42403", "Gerrit Cole"})
	require.NoError(t, err)
	assert.Equal(t, "pitcher", subjects[0].Role)

	subjects, err = subjectsFromArgs(batch.ScopeTeams, []string{"LAD", "New York Yankees"})
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "LAD", subjects[0].ID)
	assert.Equal(t, "Los Angeles Dodgers", subjects[0].Name)
	assert.Equal(t, "NYY", subjects[1].ID)

	_, err = subjectsFromArgs(batch.ScopeTeams, []string{"zzzz"})
	assert.Error(t, err)
}

func TestPlayerArgsValidation(t *testing.T) {
	check := argsFor(batch.ScopePlayers)
	assert.NoError(t, check(nil, nil))
	assert.NoError(t, check(nil, []string{"1", "A B"}))
	assert.Error(t, check(nil, []string{"1"}))

	assert.Error(t, argsFor(batch.ScopeLeague)(&cobra.Command{Use: "league"}, []string{"x"}))
}

func TestJobsCommand(t *testing.T) {
	var out bytes.Buffer
	jobsCmd.SetOut(&out)
	require.NoError(t, jobsCmd.RunE(jobsCmd, nil))
	assert.Contains(t, out.String(), "bat_vs_pitch")
	assert.Contains(t, out.String(), "team_rankings")
}
