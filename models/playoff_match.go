package models

import (
	"fmt"
	"strings"
	"time"
)

// PlayoffRound is the fixed forward-only round vocabulary. Progression goes
// 16avos -> octavos -> cuartos -> semifinal -> final, never backward.
type PlayoffRound string

const (
	Round16avos    PlayoffRound = "16avos"
	RoundOctavos   PlayoffRound = "octavos"
	RoundCuartos   PlayoffRound = "cuartos"
	RoundSemifinal PlayoffRound = "semifinal"
	RoundFinal     PlayoffRound = "final"
)

// NextRound returns the forward successor, or "" for the final.
func (r PlayoffRound) NextRound() PlayoffRound {
	switch r {
	case Round16avos:
		return RoundOctavos
	case RoundOctavos:
		return RoundCuartos
	case RoundCuartos:
		return RoundSemifinal
	case RoundSemifinal:
		return RoundFinal
	}
	return ""
}

// AllowsSuperTiebreak reports whether the round may use the super-tiebreak
// third-set format at all. Cuartos, semifinal and final play a full third set
// regardless of any tournament-level flag.
func (r PlayoffRound) AllowsSuperTiebreak() bool {
	switch r {
	case RoundCuartos, RoundSemifinal, RoundFinal:
		return false
	}
	return true
}

// Capitalized renders the round name with an upper-cased first letter, the
// exact form used in "Ganador ..." labels.
func (r PlayoffRound) Capitalized() string {
	s := string(r)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PlayoffMatch is one single-elimination fixture. The forward reference to
// the successor is an explicit (NextMatchID, NextSlot) edge; WinnerLabel
// keeps the human-readable "Ganador Cuartos3" form for previews and clients.
type PlayoffMatch struct {
	ID           int          `json:"id"`
	TournamentID int          `json:"tournament_id"`
	Round        PlayoffRound `json:"round"`
	BracketPos   int          `json:"bracket_pos"`

	Team1ID *int `json:"team1_id,omitempty"`
	Team2ID *int `json:"team2_id,omitempty"`

	// NextMatchID/NextSlot point at the successor match and the team slot
	// (1 or 2) the winner advances into. Nil for the final.
	NextMatchID *int `json:"next_match_id,omitempty"`
	NextSlot    *int `json:"next_slot,omitempty"`

	IsBye bool `json:"is_bye"`

	Sets       []SetScore  `json:"sets,omitempty"`
	SetsTeam1  int         `json:"sets_team1"`
	SetsTeam2  int         `json:"sets_team2"`
	GamesTeam1 int         `json:"games_team1"`
	GamesTeam2 int         `json:"games_team2"`
	WinnerID   *int        `json:"winner_team_id,omitempty"`
	Status     MatchStatus `json:"status"`

	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	CourtID  *int       `json:"court_id,omitempty"`
}

// WinnerLabel is the symbolic name for this match's winner, e.g.
// "Ganador Semifinal2".
func (m *PlayoffMatch) WinnerLabel() string {
	return WinnerLabel(m.Round, m.BracketPos)
}

func WinnerLabel(round PlayoffRound, bracketPos int) string {
	return fmt.Sprintf("Ganador %s%d", round.Capitalized(), bracketPos)
}

func (m *PlayoffMatch) HasResult() bool {
	return len(m.Sets) > 0
}
