package models

import "time"

// Standing is one derived ranking row for a team inside its group. The whole
// set for a group is recomputed and replaced on every result; rows are never
// patched incrementally.
type Standing struct {
	ID            int       `json:"id"`
	GroupID       int       `json:"group_id"`
	TeamID        int       `json:"team_id"`
	MatchesPlayed int       `json:"matches_played"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	SetsWon       int       `json:"sets_won"`
	SetsLost      int       `json:"sets_lost"`
	GamesWon      int       `json:"games_won"`
	GamesLost     int       `json:"games_lost"`
	Position      int       `json:"position"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *Standing) SetDifference() int  { return s.SetsWon - s.SetsLost }
func (s *Standing) GameDifference() int { return s.GamesWon - s.GamesLost }
