package engine

import (
	"fmt"
	"sort"

	"github.com/padelops/tournament-engine/models"
)

// StandingRow is one computed ranking row. The persisted models.Standing is
// a straight copy of this plus identifiers.
type StandingRow struct {
	TeamID        int
	MatchesPlayed int
	Wins          int
	Losses        int
	SetsWon       int
	SetsLost      int
	GamesWon      int
	GamesLost     int
	Position      int
}

// ComputeStandings aggregates the finished matches of one group into a fully
// ranked table. Every member team gets a row even with zero finished matches.
// Ranking: wins desc, then set difference desc, then game difference desc;
// residual ties keep membership order (undefined beyond that; no head-to-head
// rule is invented). Positions are a dense 1..N permutation.
//
// The function is pure and deterministic: running it twice over identical
// finished-match input yields identical output, which is what makes the
// delete-then-reinsert persistence of standings idempotent.
func ComputeStandings(memberTeamIDs []int, matches []*models.GroupMatch) []StandingRow {
	rows := make([]StandingRow, len(memberTeamIDs))
	byTeam := make(map[int]*StandingRow, len(memberTeamIDs))
	for i, teamID := range memberTeamIDs {
		rows[i] = StandingRow{TeamID: teamID}
		byTeam[teamID] = &rows[i]
	}

	for _, m := range matches {
		if m.Status != models.MatchStatusFinished {
			continue
		}
		if m.Team1ID == nil || m.Team2ID == nil || m.WinnerID == nil {
			continue
		}
		r1, r2 := byTeam[*m.Team1ID], byTeam[*m.Team2ID]
		if r1 == nil || r2 == nil {
			continue
		}

		r1.MatchesPlayed++
		r2.MatchesPlayed++
		r1.SetsWon += m.SetsTeam1
		r1.SetsLost += m.SetsTeam2
		r2.SetsWon += m.SetsTeam2
		r2.SetsLost += m.SetsTeam1
		r1.GamesWon += m.GamesTeam1
		r1.GamesLost += m.GamesTeam2
		r2.GamesWon += m.GamesTeam2
		r2.GamesLost += m.GamesTeam1

		if *m.WinnerID == *m.Team1ID {
			r1.Wins++
			r2.Losses++
		} else {
			r2.Wins++
			r1.Losses++
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if d1, d2 := a.SetsWon-a.SetsLost, b.SetsWon-b.SetsLost; d1 != d2 {
			return d1 > d2
		}
		if d1, d2 := a.GamesWon-a.GamesLost, b.GamesWon-b.GamesLost; d1 != d2 {
			return d1 > d2
		}
		return false
	})

	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}

// QualifierCount: top 2 of a 3-team group, top 3 of a 4-team group.
func QualifierCount(groupSize int) int {
	if groupSize >= 4 {
		return 3
	}
	return 2
}

// Qualifier is a team advancing from the group stage, tagged with its origin
// group and group-relative finishing position for seeding.
type Qualifier struct {
	TeamID       int
	GroupOrdinal int
	Position     int
}

// SeedLabel renders the symbolic seeding label, e.g. position 1 in group
// ordinal 0 -> "1A".
func (q Qualifier) SeedLabel() string {
	return fmt.Sprintf("%d%s", q.Position, models.GroupLabel(q.GroupOrdinal))
}

// QualifiersFromRows extracts the qualifying rows of a ranked group.
func QualifiersFromRows(groupOrdinal, groupSize int, rows []StandingRow) []Qualifier {
	count := QualifierCount(groupSize)
	if count > len(rows) {
		count = len(rows)
	}
	qualifiers := make([]Qualifier, 0, count)
	for _, row := range rows[:count] {
		qualifiers = append(qualifiers, Qualifier{
			TeamID:       row.TeamID,
			GroupOrdinal: groupOrdinal,
			Position:     row.Position,
		})
	}
	return qualifiers
}
