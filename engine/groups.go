package engine

import (
	"errors"
	"fmt"

	"github.com/padelops/tournament-engine/models"
)

var ErrNotEnoughTeams = errors.New("at least 3 teams are required to form groups")

// GroupPlan is one group to be created: its ordinal (letter) position and the
// member team ids in registration order.
type GroupPlan struct {
	Ordinal int
	TeamIDs []int
}

// FixturePlan is one group-stage match to be created. For the deferred
// fixtures of a 4-team group (order 3 and 4) the team ids are nil and
// Source1Order/Source2Order name the predecessor fixtures by match order,
// with SourceRule saying whether the winners or the losers meet.
type FixturePlan struct {
	GroupOrdinal int
	Team1ID      *int
	Team2ID      *int
	MatchOrder   *int
	Source1Order *int
	Source2Order *int
	SourceRule   *models.SourceRule
}

// GroupFormation is the full output of the partitioning step: groups, their
// fixtures (none scheduled yet), and, only in the degenerate single-group
// remainder-2 case, the team the sizing policy leaves without a group.
type GroupFormation struct {
	Groups           []GroupPlan
	Fixtures         []FixturePlan
	UnassignedTeamID *int
}

// FormGroups partitions teams (in registration order, no shuffling) into
// groups of 3 or 4 and emits their round-robin fixtures.
//
// Sizing: baseGroups = floor(N/3); remainder 1 grows the first group to 4;
// remainder 2 grows the first two groups to 4 when there are at least two
// groups. With a single group and remainder 2 (N=5) the lone group is
// declared size 4 and one team stays unassigned; that anomaly is reported in
// UnassignedTeamID instead of being silently corrected.
func FormGroups(teamIDs []int) (*GroupFormation, error) {
	n := len(teamIDs)
	if n < 3 {
		return nil, fmt.Errorf("%w (got %d)", ErrNotEnoughTeams, n)
	}

	baseGroups := n / 3
	if baseGroups < 1 {
		baseGroups = 1
	}
	sizes := make([]int, baseGroups)
	for i := range sizes {
		sizes[i] = 3
	}
	switch n % 3 {
	case 1:
		sizes[0] = 4
	case 2:
		if baseGroups >= 2 {
			sizes[0] = 4
			sizes[1] = 4
		} else {
			sizes[0] = 4
		}
	}

	formation := &GroupFormation{
		Groups: make([]GroupPlan, 0, baseGroups),
	}

	idx := 0
	for ordinal, size := range sizes {
		members := append([]int(nil), teamIDs[idx:idx+size]...)
		idx += size
		plan := GroupPlan{Ordinal: ordinal, TeamIDs: members}
		formation.Groups = append(formation.Groups, plan)
		formation.Fixtures = append(formation.Fixtures, groupFixtures(plan)...)
	}

	if idx < n {
		unassigned := teamIDs[idx]
		formation.UnassignedTeamID = &unassigned
	}

	return formation, nil
}

func groupFixtures(g GroupPlan) []FixturePlan {
	if len(g.TeamIDs) == 3 {
		// Plain round robin, no ordering between the three pairings.
		return []FixturePlan{
			pairFixture(g.Ordinal, g.TeamIDs[0], g.TeamIDs[1]),
			pairFixture(g.Ordinal, g.TeamIDs[0], g.TeamIDs[2]),
			pairFixture(g.Ordinal, g.TeamIDs[1], g.TeamIDs[2]),
		}
	}

	// 4-team group: order1 = t0 vs t3, order2 = t1 vs t2 are immediately
	// playable; order3 pairs the winners, order4 the losers.
	order1 := pairFixture(g.Ordinal, g.TeamIDs[0], g.TeamIDs[3])
	order1.MatchOrder = intPtr(1)
	order2 := pairFixture(g.Ordinal, g.TeamIDs[1], g.TeamIDs[2])
	order2.MatchOrder = intPtr(2)

	order3 := deferredFixture(g.Ordinal, 3, models.SourceRuleWinner)
	order4 := deferredFixture(g.Ordinal, 4, models.SourceRuleLoser)

	return []FixturePlan{order1, order2, order3, order4}
}

func pairFixture(ordinal, team1, team2 int) FixturePlan {
	return FixturePlan{
		GroupOrdinal: ordinal,
		Team1ID:      intPtr(team1),
		Team2ID:      intPtr(team2),
	}
}

func deferredFixture(ordinal, order int, rule models.SourceRule) FixturePlan {
	return FixturePlan{
		GroupOrdinal: ordinal,
		MatchOrder:   intPtr(order),
		Source1Order: intPtr(1),
		Source2Order: intPtr(2),
		SourceRule:   &rule,
	}
}

func intPtr(v int) *int { return &v }
