package engine

import (
	"testing"

	"github.com/padelops/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sets(scores ...int) []models.SetScore {
	out := make([]models.SetScore, 0, len(scores)/2)
	for i := 0; i < len(scores); i += 2 {
		out = append(out, models.SetScore{Team1: scores[i], Team2: scores[i+1]})
	}
	return out
}

func TestValidateSetScores(t *testing.T) {
	tests := []struct {
		name       string
		sets       []models.SetScore
		superAllow bool
		wantErr    bool
	}{
		{name: "straight sets", sets: sets(6, 3, 6, 4)},
		{name: "straight sets to team2", sets: sets(3, 6, 4, 6)},
		{name: "tiebreak set", sets: sets(7, 6, 6, 0)},
		{name: "seven five", sets: sets(7, 5, 6, 2)},
		{name: "split with regular third", sets: sets(6, 2, 2, 6, 6, 4)},
		{name: "split with super tiebreak allowed", sets: sets(6, 2, 2, 6, 10, 7), superAllow: true},
		{name: "super tiebreak extended", sets: sets(6, 2, 2, 6, 13, 11), superAllow: true},
		{name: "super tiebreak not allowed", sets: sets(6, 2, 2, 6, 10, 7), wantErr: true},
		{name: "no sets", sets: nil, wantErr: true},
		{name: "one set", sets: sets(6, 0), wantErr: true},
		{name: "four sets", sets: sets(6, 0, 6, 0, 6, 0, 6, 0), wantErr: true},
		{name: "six five is not a set", sets: sets(6, 5, 6, 0), wantErr: true},
		{name: "seven four is not a set", sets: sets(7, 4, 6, 0), wantErr: true},
		{name: "drawn set", sets: sets(6, 6, 6, 0), wantErr: true},
		{name: "negative games", sets: sets(6, -1, 6, 0), wantErr: true},
		{name: "third set after straight win", sets: sets(6, 0, 6, 0, 6, 0), wantErr: true},
		{name: "missing third set on split", sets: sets(6, 0, 0, 6), wantErr: true},
		{name: "ten nine is not a super tiebreak", sets: sets(6, 2, 2, 6, 10, 9), superAllow: true, wantErr: true},
		{name: "extended super tiebreak needs two clear", sets: sets(6, 2, 2, 6, 12, 9), superAllow: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSetScores(tt.sets, tt.superAllow)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidSets)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSummarizeSets(t *testing.T) {
	s1, s2, g1, g2, winner := SummarizeSets(sets(6, 3, 4, 6, 10, 8))
	assert.Equal(t, 2, s1)
	assert.Equal(t, 1, s2)
	assert.Equal(t, 20, g1)
	assert.Equal(t, 17, g2)
	assert.Equal(t, 1, winner)

	s1, s2, _, _, winner = SummarizeSets(sets(3, 6, 6, 4, 2, 6))
	assert.Equal(t, 1, s1)
	assert.Equal(t, 2, s2)
	assert.Equal(t, 2, winner)
}
