package engine

import (
	"testing"

	"github.com/padelops/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormGroupsRejectsTooFewTeams(t *testing.T) {
	_, err := FormGroups([]int{1, 2})
	require.ErrorIs(t, err, ErrNotEnoughTeams)
}

func TestFormGroupsSizes(t *testing.T) {
	tests := []struct {
		name       string
		teams      int
		wantSizes  []int
		unassigned bool
	}{
		{name: "exact threes", teams: 6, wantSizes: []int{3, 3}},
		{name: "remainder one grows first group", teams: 7, wantSizes: []int{4, 3}},
		{name: "remainder two grows first two groups", teams: 8, wantSizes: []int{4, 4}},
		{name: "ten teams", teams: 10, wantSizes: []int{4, 3, 3}},
		{name: "eleven teams", teams: 11, wantSizes: []int{4, 4, 3}},
		{name: "single group of four", teams: 4, wantSizes: []int{4}},
		{name: "five teams leaves one out", teams: 5, wantSizes: []int{4}, unassigned: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			teamIDs := make([]int, tt.teams)
			for i := range teamIDs {
				teamIDs[i] = 100 + i
			}

			formation, err := FormGroups(teamIDs)
			require.NoError(t, err)
			require.Len(t, formation.Groups, len(tt.wantSizes))

			next := 0
			for i, g := range formation.Groups {
				assert.Equal(t, i, g.Ordinal)
				require.Len(t, g.TeamIDs, tt.wantSizes[i])
				// Registration order, no shuffling.
				assert.Equal(t, teamIDs[next:next+tt.wantSizes[i]], g.TeamIDs)
				next += tt.wantSizes[i]
			}

			if tt.unassigned {
				require.NotNil(t, formation.UnassignedTeamID)
				assert.Equal(t, teamIDs[tt.teams-1], *formation.UnassignedTeamID)
			} else {
				assert.Nil(t, formation.UnassignedTeamID)
			}
		})
	}
}

func TestFormGroupsThreeTeamFixtures(t *testing.T) {
	formation, err := FormGroups([]int{10, 20, 30})
	require.NoError(t, err)
	require.Len(t, formation.Fixtures, 3)

	pairs := make(map[[2]int]bool)
	for _, f := range formation.Fixtures {
		require.NotNil(t, f.Team1ID)
		require.NotNil(t, f.Team2ID)
		assert.Nil(t, f.MatchOrder)
		assert.Nil(t, f.SourceRule)
		pairs[[2]int{*f.Team1ID, *f.Team2ID}] = true
	}
	assert.True(t, pairs[[2]int{10, 20}])
	assert.True(t, pairs[[2]int{10, 30}])
	assert.True(t, pairs[[2]int{20, 30}])
}

func TestFormGroupsFourTeamFixtures(t *testing.T) {
	formation, err := FormGroups([]int{1, 2, 3, 4})
	require.NoError(t, err)
	require.Len(t, formation.Fixtures, 4)

	byOrder := make(map[int]FixturePlan)
	for _, f := range formation.Fixtures {
		require.NotNil(t, f.MatchOrder)
		byOrder[*f.MatchOrder] = f
	}

	order1 := byOrder[1]
	require.NotNil(t, order1.Team1ID)
	assert.Equal(t, 1, *order1.Team1ID)
	assert.Equal(t, 4, *order1.Team2ID)

	order2 := byOrder[2]
	assert.Equal(t, 2, *order2.Team1ID)
	assert.Equal(t, 3, *order2.Team2ID)

	order3 := byOrder[3]
	assert.Nil(t, order3.Team1ID)
	assert.Nil(t, order3.Team2ID)
	require.NotNil(t, order3.SourceRule)
	assert.Equal(t, models.SourceRuleWinner, *order3.SourceRule)
	assert.Equal(t, 1, *order3.Source1Order)
	assert.Equal(t, 2, *order3.Source2Order)

	order4 := byOrder[4]
	require.NotNil(t, order4.SourceRule)
	assert.Equal(t, models.SourceRuleLoser, *order4.SourceRule)
}
