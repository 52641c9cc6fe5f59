package engine

import (
	"errors"
	"fmt"

	"github.com/padelops/tournament-engine/models"
)

var ErrNoFeasibleSlot = errors.New("no feasible slot for fixture")

// CapacityError reports that the candidate slot supply cannot cover the
// fixtures needing one. The call commits nothing in that case.
type CapacityError struct {
	SlotsNeeded    int
	SlotsAvailable int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough time slots: %d needed, %d available", e.SlotsNeeded, e.SlotsAvailable)
}

// Fixture is a match needing a slot. Team ids may be nil for fixtures whose
// teams are not resolved yet (the deferred order3/order4 dependents); the
// caller is responsible for ordering those after their predecessors; the
// assigner does no dependency reasoning of its own.
type Fixture struct {
	ID      int
	Team1ID *int
	Team2ID *int
}

// Assignment maps one fixture onto its chosen slot.
type Assignment struct {
	FixtureID int
	Slot      models.ScheduleSlot
}

// AssignSchedule maps fixtures onto candidate slots, fixture by fixture in
// the caller-supplied priority order. A fixture takes the first free slot
// where neither of its known teams already holds an overlapping slot that
// day and where the slot is not blacked out for either team.
//
// The whole call fails atomically: a CapacityError up front when fixtures
// outnumber candidates, an ErrNoFeasibleSlot when conflicts exhaust the
// supply for one fixture. No partial result is ever returned.
func AssignSchedule(
	fixtures []Fixture,
	slots []models.ScheduleSlot,
	restrictions map[int][]models.TeamScheduleRestriction,
	sink ProgressSink,
) ([]Assignment, error) {
	sink = sinkOrNop(sink)

	if len(fixtures) > len(slots) {
		return nil, &CapacityError{SlotsNeeded: len(fixtures), SlotsAvailable: len(slots)}
	}
	sink.Log(fmt.Sprintf("assigning %d fixtures over %d candidate slots", len(fixtures), len(slots)))

	used := make([]bool, len(slots))
	held := make(map[int][]models.ScheduleSlot)

	assignments := make([]Assignment, 0, len(fixtures))
	for i, fixture := range fixtures {
		chosen := -1
		for si, slot := range slots {
			if used[si] {
				continue
			}
			if teamConflicts(fixture.Team1ID, slot, held, restrictions) ||
				teamConflicts(fixture.Team2ID, slot, held, restrictions) {
				continue
			}
			chosen = si
			break
		}
		if chosen < 0 {
			return nil, fmt.Errorf("%w: fixture %d", ErrNoFeasibleSlot, fixture.ID)
		}

		slot := slots[chosen]
		used[chosen] = true
		if fixture.Team1ID != nil {
			held[*fixture.Team1ID] = append(held[*fixture.Team1ID], slot)
		}
		if fixture.Team2ID != nil {
			held[*fixture.Team2ID] = append(held[*fixture.Team2ID], slot)
		}
		assignments = append(assignments, Assignment{FixtureID: fixture.ID, Slot: slot})
		sink.Progress((i+1)*100/len(fixtures), fmt.Sprintf("fixture %d scheduled", fixture.ID))
	}

	return assignments, nil
}

func teamConflicts(
	teamID *int,
	slot models.ScheduleSlot,
	held map[int][]models.ScheduleSlot,
	restrictions map[int][]models.TeamScheduleRestriction,
) bool {
	if teamID == nil {
		return false
	}
	for _, h := range held[*teamID] {
		if slot.SameDay(h) && slot.Overlaps(h) {
			return true
		}
	}
	for _, r := range restrictions[*teamID] {
		if r.Blocks(slot) {
			return true
		}
	}
	return false
}
