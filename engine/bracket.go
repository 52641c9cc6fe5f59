package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/padelops/tournament-engine/models"
)

var (
	ErrNotEnoughQualifiers = errors.New("at least 2 qualified teams are required to build a bracket")
	ErrTooManyQualifiers   = errors.New("bracket supports at most 32 qualified teams")
)

// BracketMatch is one generated playoff fixture. Pos is the 1-based,
// contiguous bracket position inside the round; NextPos/NextSlot form the
// forward edge into the following round (both zero for the final). Labels
// carry the symbolic names ("1A", "Ganador Cuartos2") used by previews and
// by clients while team ids are still unknown.
type BracketMatch struct {
	Round      models.PlayoffRound
	Pos        int
	Team1ID    *int
	Team2ID    *int
	Team1Label string
	Team2Label string
	IsBye      bool
	ByeTeamID  *int
	NextPos    int
	NextSlot   int
}

type bracketNode struct {
	teamID *int
	label  string
	bye    bool
}

// BuildBracket lays out the full single-elimination bracket for the given
// qualifiers. Seeding orders qualifiers by finishing position, then group;
// they are placed by the standard 1-vs-N bracket order, byes (when the count
// is not a power of two) landing opposite the top seeds in the earliest
// round. A repair pass then swaps seats to avoid same-group pairings in the
// first round wherever feasible.
//
// Qualifiers with TeamID 0 produce a structure-only (preview) bracket: the
// symbolic labels are populated, the team ids stay nil.
func BuildBracket(qualifiers []Qualifier) ([]*BracketMatch, error) {
	n := len(qualifiers)
	if n < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrNotEnoughQualifiers, n)
	}
	if n > 32 {
		return nil, fmt.Errorf("%w (got %d)", ErrTooManyQualifiers, n)
	}

	seeded := append([]Qualifier(nil), qualifiers...)
	sort.SliceStable(seeded, func(i, j int) bool {
		if seeded[i].Position != seeded[j].Position {
			return seeded[i].Position < seeded[j].Position
		}
		return seeded[i].GroupOrdinal < seeded[j].GroupOrdinal
	})

	size := 2
	for size < n {
		size <<= 1
	}

	slots := make([]*Qualifier, size)
	for i, seedNum := range seedPositions(size) {
		if seedNum <= n {
			q := seeded[seedNum-1]
			slots[i] = &q
		}
	}
	resolveSameGroupClashes(slots)

	nodes := make([]bracketNode, size)
	for i, q := range slots {
		if q == nil {
			nodes[i] = bracketNode{bye: true}
			continue
		}
		nodes[i] = bracketNode{teamID: qualifierTeamPtr(*q), label: q.SeedLabel()}
	}

	matches := make([]*BracketMatch, 0, size-1)
	for len(nodes) > 1 {
		count := len(nodes) / 2
		round, err := roundForMatchCount(count)
		if err != nil {
			return nil, err
		}

		next := make([]bracketNode, 0, count)
		for pos := 1; pos <= count; pos++ {
			n1, n2 := nodes[2*pos-2], nodes[2*pos-1]

			m := &BracketMatch{Round: round, Pos: pos}
			if count > 1 {
				m.NextPos = (pos + 1) / 2
				m.NextSlot = 2 - pos%2
			}

			switch {
			case n1.bye && n2.bye:
				return nil, fmt.Errorf("internal bracket error: two byes met at %s pos %d", round, pos)
			case n2.bye:
				m.IsBye = true
				m.Team1ID = n1.teamID
				m.Team1Label = n1.label
				m.ByeTeamID = n1.teamID
				next = append(next, n1)
			case n1.bye:
				m.IsBye = true
				m.Team1ID = n2.teamID
				m.Team1Label = n2.label
				m.ByeTeamID = n2.teamID
				next = append(next, n2)
			default:
				m.Team1ID = n1.teamID
				m.Team1Label = n1.label
				m.Team2ID = n2.teamID
				m.Team2Label = n2.label
				next = append(next, bracketNode{label: models.WinnerLabel(round, pos)})
			}
			matches = append(matches, m)
		}
		nodes = next
	}

	return matches, nil
}

func qualifierTeamPtr(q Qualifier) *int {
	if q.TeamID <= 0 {
		return nil
	}
	id := q.TeamID
	return &id
}

func roundForMatchCount(count int) (models.PlayoffRound, error) {
	switch count {
	case 1:
		return models.RoundFinal, nil
	case 2:
		return models.RoundSemifinal, nil
	case 4:
		return models.RoundCuartos, nil
	case 8:
		return models.RoundOctavos, nil
	case 16:
		return models.Round16avos, nil
	}
	return "", fmt.Errorf("no round name for %d matches", count)
}

// seedPositions returns, per bracket seat, the 1-based seed that sits there
// under the classic 1-vs-N pairing (e.g. size 8: 1,8,4,5,2,7,3,6).
func seedPositions(size int) []int {
	positions := []int{1}
	for len(positions) < size {
		mirror := len(positions)*2 + 1
		doubled := make([]int, 0, len(positions)*2)
		for _, p := range positions {
			doubled = append(doubled, p, mirror-p)
		}
		positions = doubled
	}
	return positions
}

// resolveSameGroupClashes swaps the second seat of a same-group first-round
// pair with a seat from another pair when the swap removes the clash without
// creating a new one. Best effort: a clash with no clean swap is left alone.
func resolveSameGroupClashes(slots []*Qualifier) {
	pairs := len(slots) / 2
	for i := 0; i < pairs; i++ {
		a, b := slots[2*i], slots[2*i+1]
		if a == nil || b == nil || a.GroupOrdinal != b.GroupOrdinal {
			continue
		}
	search:
		for step := 1; step < pairs; step++ {
			j := (i + step) % pairs
			for off := 0; off < 2; off++ {
				candidate := slots[2*j+off]
				if candidate == nil || candidate.GroupOrdinal == a.GroupOrdinal {
					continue
				}
				partner := slots[2*j+1-off]
				if partner != nil && partner.GroupOrdinal == b.GroupOrdinal {
					continue
				}
				slots[2*i+1], slots[2*j+off] = slots[2*j+off], slots[2*i+1]
				break search
			}
		}
	}
}
