package engine

import (
	"errors"
	"fmt"

	"github.com/padelops/tournament-engine/models"
)

var ErrInvalidSets = errors.New("invalid set scores")

// ValidateSetScores checks a submitted best-of-3 result for legal padel set
// shapes. Regular sets: 6-0..6-4, 7-5 or 7-6. The third set may instead be
// a super tiebreak (first to 10, win by 2) when superTiebreakAllowed is
// true; late playoff rounds pass false here regardless of the tournament
// flag. A third set must be present exactly when the first two split 1-1.
func ValidateSetScores(sets []models.SetScore, superTiebreakAllowed bool) error {
	if len(sets) < 2 || len(sets) > 3 {
		return fmt.Errorf("%w: a result has 2 or 3 sets, got %d", ErrInvalidSets, len(sets))
	}

	for i := 0; i < 2; i++ {
		if !validRegularSet(sets[i].Team1, sets[i].Team2) {
			return fmt.Errorf("%w: set %d score %d-%d is not a valid set", ErrInvalidSets, i+1, sets[i].Team1, sets[i].Team2)
		}
	}

	split := setWinner(sets[0]) != setWinner(sets[1])
	if !split && len(sets) == 3 {
		return fmt.Errorf("%w: third set recorded after a straight-sets win", ErrInvalidSets)
	}
	if split && len(sets) == 2 {
		return fmt.Errorf("%w: sets are split 1-1, a third set is required", ErrInvalidSets)
	}

	if len(sets) == 3 {
		third := sets[2]
		if validRegularSet(third.Team1, third.Team2) {
			return nil
		}
		if validSuperTiebreak(third.Team1, third.Team2) {
			if !superTiebreakAllowed {
				return fmt.Errorf("%w: super tiebreak %d-%d not allowed for this match", ErrInvalidSets, third.Team1, third.Team2)
			}
			return nil
		}
		return fmt.Errorf("%w: third set score %d-%d is not a valid set", ErrInvalidSets, third.Team1, third.Team2)
	}
	return nil
}

// SummarizeSets computes the per-side aggregates of a validated result:
// sets won (first to 2), total games over the played sets, and the winning
// side (1 or 2).
func SummarizeSets(sets []models.SetScore) (setsTeam1, setsTeam2, gamesTeam1, gamesTeam2, winnerSide int) {
	for _, s := range sets {
		gamesTeam1 += s.Team1
		gamesTeam2 += s.Team2
		if setWinner(s) == 1 {
			setsTeam1++
		} else {
			setsTeam2++
		}
	}
	winnerSide = 1
	if setsTeam2 > setsTeam1 {
		winnerSide = 2
	}
	return
}

func setWinner(s models.SetScore) int {
	if s.Team1 > s.Team2 {
		return 1
	}
	return 2
}

func validRegularSet(a, b int) bool {
	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	if lo < 0 || hi == lo {
		return false
	}
	switch hi {
	case 6:
		return lo <= 4
	case 7:
		return lo == 5 || lo == 6
	}
	return false
}

func validSuperTiebreak(a, b int) bool {
	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	if lo < 0 || hi == lo {
		return false
	}
	if hi == 10 {
		return lo <= 8
	}
	return hi > 10 && hi-lo == 2
}
