package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextRound(t *testing.T) {
	assert.Equal(t, RoundOctavos, Round16avos.NextRound())
	assert.Equal(t, RoundCuartos, RoundOctavos.NextRound())
	assert.Equal(t, RoundSemifinal, RoundCuartos.NextRound())
	assert.Equal(t, RoundFinal, RoundSemifinal.NextRound())
	assert.Equal(t, PlayoffRound(""), RoundFinal.NextRound())
}

func TestAllowsSuperTiebreak(t *testing.T) {
	assert.True(t, Round16avos.AllowsSuperTiebreak())
	assert.True(t, RoundOctavos.AllowsSuperTiebreak())
	assert.False(t, RoundCuartos.AllowsSuperTiebreak())
	assert.False(t, RoundSemifinal.AllowsSuperTiebreak())
	assert.False(t, RoundFinal.AllowsSuperTiebreak())
}

func TestWinnerLabel(t *testing.T) {
	assert.Equal(t, "Ganador Cuartos3", WinnerLabel(RoundCuartos, 3))
	assert.Equal(t, "Ganador Final1", WinnerLabel(RoundFinal, 1))
	assert.Equal(t, "Ganador 16avos12", WinnerLabel(Round16avos, 12))
}

func TestGroupLabel(t *testing.T) {
	assert.Equal(t, "A", GroupLabel(0))
	assert.Equal(t, "D", GroupLabel(3))
}
