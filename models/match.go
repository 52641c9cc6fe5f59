package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusFinished   MatchStatus = "finished"
	MatchStatusCancelled  MatchStatus = "cancelled"
)

// SetScore is one played set, best of up to three per match.
type SetScore struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// SourceRule says which side of a finished predecessor feeds a deferred
// group fixture: order3 takes the winners, order4 takes the losers.
type SourceRule string

const (
	SourceRuleWinner SourceRule = "winner"
	SourceRuleLoser  SourceRule = "loser"
)

// GroupMatch is a group-stage fixture. In 4-team groups order3/order4 start
// with nil team references and carry explicit predecessor edges
// (SourceMatch1ID/SourceMatch2ID + SourceRule) instead; the team ids are
// materialized once both predecessors finish.
type GroupMatch struct {
	ID      int `json:"id"`
	GroupID int `json:"group_id"`

	Team1ID *int `json:"team1_id,omitempty"`
	Team2ID *int `json:"team2_id,omitempty"`

	// MatchOrder is only meaningful inside 4-team groups (1..4).
	MatchOrder *int `json:"match_order,omitempty"`

	SourceMatch1ID *int        `json:"source_match1_id,omitempty"`
	SourceMatch2ID *int        `json:"source_match2_id,omitempty"`
	SourceRule     *SourceRule `json:"source_rule,omitempty"`

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

// HasResult reports whether a first-set score has been recorded. Schedule
// regeneration must never touch fixtures for which this is true.
func (m *GroupMatch) HasResult() bool {
	return len(m.Sets) > 0
}
